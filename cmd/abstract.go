package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var abstractPatient string

var abstractCmd = &cobra.Command{
	Use:   "abstract",
	Short: "Run gap abstraction for a single patient",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.RunPatient(ctx, abstractPatient)
		if err != nil {
			return eris.Wrap(err, "abstraction run")
		}

		zap.L().Info("abstraction complete",
			zap.String("patient_id", abstractPatient),
			zap.Int("resolved", result.Resolved),
			zap.Int("exhausted", result.Exhausted),
			zap.Int("synthesized_events", result.Synthesized),
			zap.Int("oracle_calls", env.Budget.Calls()),
			zap.String("artifact", result.ArtifactPath),
		)

		// Print artifact JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Artifact)
	},
}

func init() {
	abstractCmd.Flags().StringVar(&abstractPatient, "patient", "", "patient ID (required)")
	_ = abstractCmd.MarkFlagRequired("patient")
	rootCmd.AddCommand(abstractCmd)
}
