package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearchart/abstraction-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chartline",
	Short: "Confidence-gated clinical fact abstraction",
	Long:  "Fills missing structured facts on patient treatment timelines by ranking candidate chart documents, extracting with tiered Claude calls, and adjudicating conflicting sources with full provenance.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
