package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearchart/abstraction-cli/internal/gaps"
	"github.com/clearchart/abstraction-cli/internal/inventory"
	"github.com/clearchart/abstraction-cli/internal/model"
)

var gapsPatient string

// gapReport is one line of the dry-run output: the gap plus the
// candidate documents that would be tried, without any oracle calls.
type gapReport struct {
	Gap        *model.Gap `json:"gap"`
	Candidates []string   `json:"candidates"`
}

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Report timeline gaps and ranked candidates without calling the oracle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		reg, err := initRegistry()
		if err != nil {
			return err
		}

		tl, err := st.LoadTimeline(ctx, gapsPatient)
		if err != nil {
			return eris.Wrap(err, "load timeline")
		}
		docs, err := st.LoadDocuments(ctx, gapsPatient)
		if err != nil {
			return eris.Wrap(err, "load documents")
		}
		inv := inventory.Build(gapsPatient, docs)

		gapList := gaps.Identify(tl, reg)
		reports := make([]gapReport, 0, len(gapList))
		for _, g := range gapList {
			candidates := inventory.Rank(g, inv, reg, cfg.Extraction.MaxCandidates)
			ids := make([]string, 0, len(candidates))
			for _, c := range candidates {
				ids = append(ids, c.ID)
			}
			reports = append(reports, gapReport{Gap: g, Candidates: ids})
		}

		zap.L().Info("gap report",
			zap.String("patient_id", gapsPatient),
			zap.Int("events", len(tl.Events)),
			zap.Int("documents", len(docs)),
			zap.Int("gaps", len(gapList)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	},
}

func init() {
	gapsCmd.Flags().StringVar(&gapsPatient, "patient", "", "patient ID (required)")
	_ = gapsCmd.MarkFlagRequired("patient")
	rootCmd.AddCommand(gapsCmd)
}
