package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clearchart/abstraction-cli/internal/chartstore"
	"github.com/clearchart/abstraction-cli/internal/content"
	"github.com/clearchart/abstraction-cli/internal/oracle"
	"github.com/clearchart/abstraction-cli/internal/orchestrate"
	"github.com/clearchart/abstraction-cli/internal/pipeline"
	"github.com/clearchart/abstraction-cli/internal/refmat"
	"github.com/clearchart/abstraction-cli/internal/registry"
	"github.com/clearchart/abstraction-cli/pkg/anthropic"
)

// engine bundles the wired components shared by the abstract, batch,
// and gaps commands.
type engine struct {
	Store    chartstore.Store
	Registry *registry.Registry
	Budget   *oracle.Budget
	Pipeline *pipeline.Pipeline
}

func (e *engine) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

// initStore opens and migrates the timeline database.
func initStore(ctx context.Context) (chartstore.Store, error) {
	st, err := chartstore.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initRegistry loads the built-in gap registry plus the optional YAML
// overlay.
func initRegistry() (*registry.Registry, error) {
	reg := registry.Default()
	if cfg.Extraction.RegistryPath != "" {
		if err := registry.LoadOverlay(reg, cfg.Extraction.RegistryPath); err != nil {
			return nil, eris.Wrap(err, "load registry overlay")
		}
		zap.L().Info("registry overlay applied", zap.String("path", cfg.Extraction.RegistryPath))
	}
	return reg, nil
}

// initEngine wires the full extraction stack from config.
func initEngine(ctx context.Context) (*engine, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	reg, err := initRegistry()
	if err != nil {
		st.Close()
		return nil, err
	}

	if cfg.Anthropic.Key == "" {
		st.Close()
		return nil, eris.New("anthropic.key is required (CHARTLINE_ANTHROPIC_KEY)")
	}

	extractor, err := content.NewExtractor(cfg.OCR.Provider, cfg.OCR.PdfToTextPath, cfg.OCR.MistralKey, cfg.OCR.MistralModel)
	if err != nil {
		st.Close()
		return nil, eris.Wrap(err, "init ocr extractor")
	}
	var ocr content.Extractor
	if cfg.OCR.Provider == "mistral" {
		ocr = extractor
	}
	fetcher := content.NewDirFetcher(cfg.Charts.Dir, extractor, ocr)

	budget := oracle.NewBudget(cfg.Extraction.MaxOracleCalls, cfg.Extraction.OracleCallsPerMinute)
	invoker := oracle.NewClaude(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, budget)

	orch := orchestrate.New(invoker, fetcher, budget, reg, orchestrate.Config{
		DateSkewDays: cfg.Extraction.DateSkewDays,
		RefContext:   refmat.Select,
	})

	return &engine{
		Store:    st,
		Registry: reg,
		Budget:   budget,
		Pipeline: pipeline.New(st, orch, reg, budget, cfg.Extraction.MaxCandidates, cfg.Output.Dir),
	}, nil
}
