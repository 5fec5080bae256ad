package main

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clearchart/abstraction-cli/internal/oracle"
	"github.com/clearchart/abstraction-cli/internal/pipeline"
)

var (
	batchLimit    int
	batchPatients string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run gap abstraction across all patients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var patients []string
		if batchPatients != "" {
			for _, id := range strings.Split(batchPatients, ",") {
				if id = strings.TrimSpace(id); id != "" {
					patients = append(patients, id)
				}
			}
		} else {
			patients, err = env.Store.ListPatients(ctx)
			if err != nil {
				return eris.Wrap(err, "list patients")
			}
		}

		if err := processBatch(ctx, patients, batchLimit, cfg.Batch.MaxConcurrentPatients, env.Pipeline.RunPatient); err != nil {
			return err
		}

		zap.L().Info("batch budget",
			zap.Int("oracle_calls", env.Budget.Calls()),
			zap.Float64("estimated_cost_usd", env.Budget.SpentUSD()),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of patients to process (0 = all)")
	batchCmd.Flags().StringVar(&batchPatients, "patients", "", "comma-separated patient IDs (default: all patients in the store)")
	rootCmd.AddCommand(batchCmd)
}

// runFunc is the callback signature for running abstraction on a patient.
type runFunc func(ctx context.Context, patientID string) (*pipeline.Result, error)

// processBatch applies limit, then runs patients concurrently. Individual
// patient failures are logged without aborting the batch; an oracle outage
// aborts scheduling, since every remaining patient would hit the same wall.
func processBatch(ctx context.Context, patients []string, limit, concurrency int, run runFunc) error {
	if len(patients) == 0 {
		zap.L().Info("no patients to process")
		return nil
	}

	if limit > 0 && len(patients) > limit {
		patients = patients[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("patients", len(patients)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, patientID := range patients {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			log := zap.L().With(zap.String("patient_id", patientID))

			result, err := run(gctx, patientID)
			if err != nil {
				failed.Add(1)
				if errors.Is(err, oracle.ErrUnavailable) {
					log.Error("oracle unavailable, aborting batch", zap.Error(err))
					return err
				}
				log.Error("abstraction failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("abstraction complete",
				zap.Int("resolved", result.Resolved),
				zap.Int("exhausted", result.Exhausted),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
