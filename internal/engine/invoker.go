package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Fatal777/invoisaic/internal/llm"
)

// Invoker performs the single expensive reasoning call under the tier's
// model and a per-call timeout. It has no retry logic; fallback policy
// lives with the parser's caller. Token spend is logged per call and
// accumulated for the process lifetime.
type Invoker struct {
	provider  llm.Provider
	maxTokens int
	timeout   time.Duration

	mu        sync.Mutex
	totalCost float64
}

// NewInvoker creates an invoker around the given provider.
func NewInvoker(provider llm.Provider, maxTokens int, timeout time.Duration) *Invoker {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Invoker{provider: provider, maxTokens: maxTokens, timeout: timeout}
}

// Invoke sends the instruction to the model and returns the raw text
// output. Failures carry an llm.FailureKind classification.
func (inv *Invoker) Invoke(ctx context.Context, model, instruction string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	resp, err := inv.provider.Complete(ctx, llm.CompletionRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: instruction},
		},
		MaxTokens:   inv.maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("invoking %s: %w", model, err)
	}

	if cost := llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens); cost > 0 {
		inv.mu.Lock()
		inv.totalCost += cost
		inv.mu.Unlock()
		log.Printf("inference %s: %d in / %d out tokens, est. $%.4f", resp.Model, resp.InputTokens, resp.OutputTokens, cost)
	}
	return resp.Content, nil
}

// TotalCost returns the accumulated estimated spend in USD.
func (inv *Invoker) TotalCost() float64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.totalCost
}
