// Package pipeline runs the full abstraction pass for one patient: load
// the timeline and document index, identify gaps, resolve each gap
// through the escalation loop, track provenance, integrate results, and
// write the run artifact.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clearchart/abstraction-cli/internal/chartstore"
	"github.com/clearchart/abstraction-cli/internal/gaps"
	"github.com/clearchart/abstraction-cli/internal/inventory"
	"github.com/clearchart/abstraction-cli/internal/model"
	"github.com/clearchart/abstraction-cli/internal/oracle"
	"github.com/clearchart/abstraction-cli/internal/orchestrate"
	"github.com/clearchart/abstraction-cli/internal/provenance"
	"github.com/clearchart/abstraction-cli/internal/registry"
	"github.com/clearchart/abstraction-cli/internal/timeline"
)

// Pipeline wires the per-patient abstraction stages together. One
// Pipeline is shared across patients in a batch; the oracle budget
// inside the orchestrator is the shared scarce resource.
type Pipeline struct {
	store         chartstore.Store
	orch          *orchestrate.Orchestrator
	tracker       *provenance.Tracker
	reg           *registry.Registry
	budget        *oracle.Budget
	maxCandidates int
	outputDir     string
}

// New creates a Pipeline.
func New(store chartstore.Store, orch *orchestrate.Orchestrator, reg *registry.Registry, budget *oracle.Budget, maxCandidates int, outputDir string) *Pipeline {
	return &Pipeline{
		store:         store,
		orch:          orch,
		tracker:       provenance.NewTracker(reg),
		reg:           reg,
		budget:        budget,
		maxCandidates: maxCandidates,
		outputDir:     outputDir,
	}
}

// Result summarizes one patient run.
type Result struct {
	Artifact     *model.Artifact
	ArtifactPath string
	Resolved     int
	Exhausted    int
	Synthesized  int
}

// RunPatient executes the abstraction pass for one patient. An oracle
// outage mid-run exhausts the remaining gaps with a reason code and
// still produces an artifact; the outage is reported alongside the
// result so the caller can stop scheduling further patients.
func (p *Pipeline) RunPatient(ctx context.Context, patientID string) (*Result, error) {
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID), zap.String("patient_id", patientID))

	tl, err := p.store.LoadTimeline(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(tl.Events) == 0 {
		return nil, eris.Errorf("pipeline: patient %s has no timeline events", patientID)
	}

	docs, err := p.store.LoadDocuments(ctx, patientID)
	if err != nil {
		return nil, err
	}
	inv := inventory.Build(patientID, docs)

	gapList := gaps.Identify(tl, p.reg)
	log.Info("run started",
		zap.Int("events", len(tl.Events)),
		zap.Int("documents", len(docs)),
		zap.Int("gaps", len(gapList)),
	)

	var oracleDown bool
	var synthesized []*model.Event
	for _, gap := range gapList {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "pipeline: run cancelled")
		}
		if oracleDown {
			gap.Exhaust(model.ReasonOracleUnavailable)
			continue
		}
		if p.budget.Exhausted() {
			gap.Exhaust(model.ReasonBudgetExhausted)
			continue
		}

		ev := tl.EventByID(gap.EventID)
		candidates := inventory.Rank(gap, inv, p.reg, p.maxCandidates)

		out, err := p.orch.Resolve(ctx, gap, candidates, ev)
		p.apply(ev, out, &synthesized)
		if err != nil {
			if errors.Is(err, oracle.ErrUnavailable) {
				log.Warn("oracle unavailable, exhausting remaining gaps", zap.Error(err))
				oracleDown = true
				continue
			}
			return nil, err
		}
	}

	timeline.AddSynthesized(tl, synthesized)
	timeline.Integrate(tl)

	if err := p.store.SaveTimeline(ctx, tl); err != nil {
		return nil, err
	}

	artifact := timeline.BuildArtifact(runID, tl, gapList, time.Now())
	path, err := timeline.WriteArtifact(p.outputDir, artifact)
	if err != nil {
		return nil, err
	}

	res := &Result{Artifact: artifact, ArtifactPath: path, Synthesized: len(synthesized)}
	for _, g := range gapList {
		switch g.Status {
		case model.StatusResolved:
			res.Resolved++
		case model.StatusExhausted:
			res.Exhausted++
		}
	}

	log.Info("run complete",
		zap.Int("resolved", res.Resolved),
		zap.Int("exhausted", res.Exhausted),
		zap.Int("synthesized_events", res.Synthesized),
		zap.Int("oracle_calls", p.budget.Calls()),
		zap.Float64("estimated_cost_usd", p.budget.SpentUSD()),
		zap.String("artifact", path),
	)
	if oracleDown {
		return res, eris.Wrap(oracle.ErrUnavailable, "pipeline: run degraded")
	}
	return res, nil
}

// apply records an outcome's extractions into provenance and collects
// synthesized events. Synthesized events get their own provenance from
// the extraction that produced them.
func (p *Pipeline) apply(ev *model.Event, out *orchestrate.Outcome, synthesized *[]*model.Event) {
	if out == nil {
		return
	}
	for _, ex := range out.Extractions {
		p.recordExtraction(ev, ex)
	}
	for _, syn := range out.Synthesized {
		p.recordExtraction(syn.Event, syn.Extraction)
		*synthesized = append(*synthesized, syn.Event)
	}
}

func (p *Pipeline) recordExtraction(ev *model.Event, ex orchestrate.Extraction) {
	for fact, value := range ex.Fields {
		p.tracker.Record(ev, fact, model.SourceRecord{
			SourceCategory: ex.Document.Category,
			Value:          value,
			Method:         ex.Method,
			Confidence:     ex.Confidence,
			DocumentID:     ex.Document.ID,
			Excerpt:        ex.Excerpt,
			ExtractedAt:    ex.At,
		})
	}
}
