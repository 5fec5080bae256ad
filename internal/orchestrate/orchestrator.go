// Package orchestrate runs the per-gap escalation loop: walk the ranked
// candidate list, validate content, invoke the oracle with at most one
// retry per candidate, and settle the gap into a terminal status. The
// orchestrator never mutates the timeline; it reports what it extracted
// and the provenance tracker and integrator take it from there.
package orchestrate

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clearchart/abstraction-cli/internal/content"
	"github.com/clearchart/abstraction-cli/internal/model"
	"github.com/clearchart/abstraction-cli/internal/oracle"
	"github.com/clearchart/abstraction-cli/internal/registry"
)

// DefaultDateSkewDays is the interval-start skew beyond which a document
// is judged to describe a different treatment episode.
const DefaultDateSkewDays = 30

// Extraction is one accepted oracle extraction against one document,
// with fields already mapped to canonical fact names.
type Extraction struct {
	Document   model.CandidateDocument
	Fields     map[string]any
	Confidence model.Confidence
	Excerpt    string
	Method     string
	At         time.Time
}

// Synthesis is a new timeline event created by the date-mismatch
// short-circuit: the document was relevant and extractable but describes
// a different episode than the gap's anchor.
type Synthesis struct {
	Event      *model.Event
	Extraction Extraction
}

// Outcome is everything the escalation loop produced for one gap. The
// gap itself carries the terminal status and reason.
type Outcome struct {
	Gap         *model.Gap
	Extractions []Extraction
	Synthesized []Synthesis
}

// Config tunes the orchestrator.
type Config struct {
	// DateSkewDays is the interval-start mismatch threshold.
	// Non-positive means DefaultDateSkewDays.
	DateSkewDays int
	// RefContext selects reference notes for a gap type's topics; may be
	// nil.
	RefContext func(topics []string) string
}

// Orchestrator drives gap escalation against a shared oracle budget.
type Orchestrator struct {
	invoker oracle.Invoker
	fetcher content.Fetcher
	budget  *oracle.Budget
	reg     *registry.Registry
	cfg     Config

	nowFunc func() time.Time
}

// New creates an Orchestrator.
func New(invoker oracle.Invoker, fetcher content.Fetcher, budget *oracle.Budget, reg *registry.Registry, cfg Config) *Orchestrator {
	if cfg.DateSkewDays <= 0 {
		cfg.DateSkewDays = DefaultDateSkewDays
	}
	return &Orchestrator{
		invoker: invoker,
		fetcher: fetcher,
		budget:  budget,
		reg:     reg,
		cfg:     cfg,
		nowFunc: time.Now,
	}
}

// Resolve runs the escalation loop for one gap over its ranked
// candidates. The gap always leaves in a terminal status. A non-nil
// error means the oracle is unavailable or the context was cancelled and
// the caller should stop scheduling oracle work; the outcome is still
// valid for what completed before the failure.
func (o *Orchestrator) Resolve(ctx context.Context, gap *model.Gap, candidates []model.CandidateDocument, ev *model.Event) (*Outcome, error) {
	out := &Outcome{Gap: gap}
	log := zap.L().With(zap.String("gap_id", gap.ID), zap.String("gap_type", string(gap.Type)))

	spec := o.reg.SpecFor(gap.Type)
	if spec == nil {
		gap.Exhaust(model.ReasonNoCandidates)
		return out, eris.Errorf("orchestrate: no spec for gap type %s", gap.Type)
	}
	if len(candidates) == 0 {
		log.Info("no candidate documents")
		gap.Exhaust(model.ReasonNoCandidates)
		return out, nil
	}

	refContext := ""
	if o.cfg.RefContext != nil {
		refContext = o.cfg.RefContext(spec.Topics)
	}

	// Facts accumulate across candidates so a later document only has to
	// supply what earlier ones missed.
	accumulated := make(map[string]any)

	for _, doc := range candidates {
		// A spent budget ends the gap before any further candidate work;
		// fetching and OCR are not free either.
		if o.budget.Exhausted() {
			gap.Exhaust(model.ReasonBudgetExhausted)
			return out, nil
		}
		if err := gap.NextCandidate(); err != nil {
			break
		}
		clog := log.With(zap.String("document_id", doc.ID), zap.Int("candidate", gap.CandidatesTried))

		text, err := o.fetcher.Fetch(ctx, doc)
		if err != nil {
			clog.Warn("content fetch failed", zap.Error(err))
			o.advance(gap, model.StatusContentInvalid)
			continue
		}
		if !ValidateContent(spec, text) {
			clog.Debug("content failed relevance vocabulary check")
			o.advance(gap, model.StatusContentInvalid)
			continue
		}

		res, retried, err := o.invoke(ctx, gap, buildPrompt(spec, gap, ev, refContext), text)
		if err != nil {
			if errors.Is(err, oracle.ErrBudgetExhausted) {
				gap.Exhaust(model.ReasonBudgetExhausted)
				return out, nil
			}
			gap.Exhaust(model.ReasonOracleUnavailable)
			return out, err
		}
		o.advance(gap, model.StatusOracleCalled)
		if res == nil {
			// Malformed twice; counts as an incomplete attempt.
			o.advance(gap, model.StatusExtractionIncomplete)
			o.advance(gap, model.StatusStillIncomplete)
			continue
		}

		fields := canonicalFields(o.reg, gap.RequiredFacts, res.Fields)

		if syn := o.shortCircuit(spec, gap, fields, res, doc); syn != nil {
			clog.Info("interval start mismatch, synthesizing event",
				zap.Timep("extracted_start", syn.Event.AnchorDate),
			)
			out.Synthesized = append(out.Synthesized, *syn)
			o.advance(gap, model.StatusExtractionIncomplete)
			o.advance(gap, model.StatusStillIncomplete)
			continue
		}

		method := model.MethodExtraction
		if retried {
			method = model.MethodExtractionRetry
		}
		if len(fields) > 0 {
			out.Extractions = append(out.Extractions, o.record(doc, fields, res, method))
			merge(accumulated, fields)
		}

		missing := missingFacts(gap.RequiredFacts, accumulated)
		if len(missing) == 0 {
			o.advance(gap, model.StatusResolved)
			return out, nil
		}
		o.advance(gap, model.StatusExtractionIncomplete)

		// One clarification retry per candidate, unless the retry slot
		// went to a malformed-output reissue.
		if !retried {
			res2, err := o.invokeOnce(ctx, gap, buildClarificationPrompt(spec, gap, ev, missing, refContext), text)
			if err != nil {
				if errors.Is(err, oracle.ErrBudgetExhausted) {
					gap.Exhaust(model.ReasonBudgetExhausted)
					return out, nil
				}
				if !errors.Is(err, oracle.ErrMalformedOutput) {
					gap.Exhaust(model.ReasonOracleUnavailable)
					return out, err
				}
				res2 = nil
			}
			o.advance(gap, model.StatusRetried)
			if res2 != nil {
				fields2 := canonicalFields(o.reg, missing, res2.Fields)
				if len(fields2) > 0 {
					out.Extractions = append(out.Extractions, o.record(doc, fields2, res2, model.MethodExtractionRetry))
					merge(accumulated, fields2)
				}
				if len(missingFacts(gap.RequiredFacts, accumulated)) == 0 {
					o.advance(gap, model.StatusResolved)
					return out, nil
				}
			}
		}
		o.advance(gap, model.StatusStillIncomplete)
	}

	if !gap.Status.Terminal() {
		log.Info("candidates exhausted without full resolution",
			zap.Int("candidates_tried", gap.CandidatesTried),
			zap.Int("oracle_calls", gap.OracleCalls),
			zap.Int("facts_recovered", len(accumulated)),
		)
		gap.Exhaust(model.ReasonNoSourceFound)
	}
	return out, nil
}

// invoke performs the initial oracle call for a candidate, reissuing
// once on malformed output. Returns (nil, true, nil) when both attempts
// were malformed.
func (o *Orchestrator) invoke(ctx context.Context, gap *model.Gap, prompt, text string) (*oracle.Result, bool, error) {
	res, err := o.invokeOnce(ctx, gap, prompt, text)
	if err == nil {
		return res, false, nil
	}
	if !errors.Is(err, oracle.ErrMalformedOutput) {
		return nil, false, err
	}

	res, err = o.invokeOnce(ctx, gap, prompt, text)
	if err == nil {
		return res, true, nil
	}
	if errors.Is(err, oracle.ErrMalformedOutput) {
		return nil, true, nil
	}
	return nil, true, err
}

// invokeOnce acquires budget and makes a single oracle call.
func (o *Orchestrator) invokeOnce(ctx context.Context, gap *model.Gap, prompt, text string) (*oracle.Result, error) {
	if err := o.budget.Acquire(ctx); err != nil {
		return nil, err
	}
	res, err := o.invoker.Invoke(ctx, prompt, text)
	gap.OracleCalls++
	return res, err
}

// shortCircuit checks the interval-start date against the gap anchor.
// A material mismatch means the document describes a different episode:
// instead of discarding a good extraction, it becomes a new synthesized
// event and the gap moves on to its next candidate.
func (o *Orchestrator) shortCircuit(spec *registry.Spec, gap *model.Gap, fields map[string]any, res *oracle.Result, doc model.CandidateDocument) *Synthesis {
	if !spec.Interval || gap.AnchorDate == nil || spec.StartField == "" {
		return nil
	}
	start, ok := parseExtractedDate(fields[spec.StartField])
	if !ok {
		return nil
	}
	skew := gap.AnchorDate.Sub(start)
	if skew < 0 {
		skew = -skew
	}
	if int(skew.Hours()/24) <= o.cfg.DateSkewDays {
		return nil
	}

	ev := &model.Event{
		ID:          gap.EventID + "-syn-" + start.Format("20060102"),
		Type:        spec.EventType,
		AnchorDate:  &start,
		Facts:       make(map[string]any),
		Synthesized: true,
	}
	return &Synthesis{
		Event:      ev,
		Extraction: o.record(doc, fields, res, model.MethodExtraction),
	}
}

func (o *Orchestrator) record(doc model.CandidateDocument, fields map[string]any, res *oracle.Result, method string) Extraction {
	return Extraction{
		Document:   doc,
		Fields:     fields,
		Confidence: res.Confidence,
		Excerpt:    res.Excerpt,
		Method:     method,
		At:         o.nowFunc(),
	}
}

func (o *Orchestrator) advance(g *model.Gap, s model.GapStatus) {
	if err := g.Transition(s); err != nil {
		zap.L().DPanic("invalid gap transition", zap.Error(err))
	}
}

// merge fills accumulated with newly usable fields, never overwriting a
// value an earlier extraction already supplied.
func merge(accumulated, fields map[string]any) {
	for k, v := range fields {
		if !usable(accumulated[k]) && usable(v) {
			accumulated[k] = v
		}
	}
}

// extractedDateFormats are tried in order when reading an interval start
// from oracle output.
var extractedDateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"January 2, 2006",
}

func parseExtractedDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range extractedDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
