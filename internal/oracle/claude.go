package oracle

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clearchart/abstraction-cli/internal/resilience"
	"github.com/clearchart/abstraction-cli/pkg/anthropic"
)

const claudeSystemPrompt = "You are a clinical data abstractor extracting structured facts from a single medical document. Respond with one JSON object: {\"fields\": {...}, \"confidence\": \"high|medium|low\", \"excerpt\": \"<short supporting quote>\"}. Use null for any field the document does not state. Never invent values."

// Claude is the production oracle backed by the Anthropic API. Transport
// failures retry with backoff and feed a circuit breaker; once the
// breaker opens, invocations fail fast with ErrUnavailable so the
// orchestrator can exhaust the remaining gaps instead of stalling.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	budget    *Budget
	breaker   *resilience.Breaker
	retry     resilience.RetryConfig
}

// NewClaude creates a Claude-backed invoker. The budget is shared across
// callers and used here only for cost attribution; call accounting
// happens in the orchestrator via Budget.Acquire.
func NewClaude(client anthropic.Client, modelID string, maxTokens int64, budget *Budget) *Claude {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "invoke")
	return &Claude{
		client:    client,
		model:     modelID,
		maxTokens: maxTokens,
		budget:    budget,
		breaker:   resilience.NewBreaker(4, 0),
		retry:     retry,
	}
}

// Invoke submits the prompt and document text. It returns
// ErrMalformedOutput for syntactically unusable responses and
// ErrUnavailable when the transport is down or the breaker is open.
func (c *Claude) Invoke(ctx context.Context, prompt, documentText string) (*Result, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, eris.Wrap(ErrUnavailable, "circuit open")
	}

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			System:    claudeSystemPrompt,
			Messages: []anthropic.Message{
				{Role: "user", Content: prompt + "\n\nDocument:\n" + documentText},
			},
		})
	})
	c.breaker.Record(err)
	if err != nil {
		return nil, eris.Wrap(errors.Join(ErrUnavailable, err), "oracle: claude invoke")
	}

	if c.budget != nil {
		c.budget.AddCost(resp.Usage.EstimateCost(c.model))
	}
	resp.Usage.LogCost(c.model, "extraction")

	res := parseResult(resp.Text())
	if res == nil || len(res.Fields) == 0 {
		zap.L().Warn("oracle returned malformed output",
			zap.String("model", c.model),
			zap.String("stop_reason", resp.StopReason),
		)
		return nil, ErrMalformedOutput
	}
	return res, nil
}
