// Package oracle defines the text-extraction oracle boundary: a black-box
// capability that accepts a prompt plus document text and returns
// structured fields with a confidence label. The production
// implementation calls Claude; tests substitute scripted stubs.
package oracle

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// Result is the oracle's structured output for one invocation.
type Result struct {
	Fields     map[string]any
	Confidence model.Confidence
	// Excerpt is the supporting raw-text snippet the oracle cited, when
	// it provided one.
	Excerpt string
	// Raw preserves the unparsed response for audit logging.
	Raw string
}

// Invoker is the oracle boundary. Implementations must be treated as
// non-deterministic and expensive; callers own budgeting and retries
// above the transport level.
type Invoker interface {
	Invoke(ctx context.Context, prompt, documentText string) (*Result, error)
}

// Error classes distinguished by the orchestrator (see the escalation
// error taxonomy).
var (
	// ErrMalformedOutput means the oracle responded but the payload was
	// not parseable. The orchestrator retries once, then counts the
	// attempt as incomplete.
	ErrMalformedOutput = eris.New("oracle: malformed output")
	// ErrUnavailable means the oracle transport failed beyond retries.
	// The run segment aborts; affected gaps exhaust with a reason code.
	ErrUnavailable = eris.New("oracle: unavailable")
	// ErrBudgetExhausted means the per-run oracle call budget is spent.
	ErrBudgetExhausted = eris.New("oracle: call budget exhausted")
)
