// Package predict runs cheap, independent model predictions alongside
// the main decision pipeline. Each prediction degrades to absent on
// failure; siblings never wait on or cancel each other.
package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Fatal777/invoisaic/internal/decision"
	"github.com/Fatal777/invoisaic/internal/llm"
)

// Predictor issues the parallel enrichment calls: transaction
// categorization, expected payment date, and amount validation.
type Predictor struct {
	provider llm.Provider
	model    string
}

// New creates a predictor using the given fast model.
func New(provider llm.Provider, model string) *Predictor {
	return &Predictor{provider: provider, model: model}
}

// Predict runs all predictions concurrently and returns the ones that
// succeeded as labelled strings, in a fixed order.
func (p *Predictor) Predict(ctx context.Context, req decision.Request) []string {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil
	}

	prompts := []struct {
		label    string
		question string
	}{
		{"category", "Classify this transaction into a short business category."},
		{"expected payment date", "Predict the expected payment date for this transaction, as an ISO date."},
		{"amount validation", "Is the amount plausible for this transaction? Answer briefly."},
	}

	results := make([]string, len(prompts))
	var wg sync.WaitGroup
	for i, prompt := range prompts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			answer := p.ask(ctx, fmt.Sprintf("%s\n\nTransaction:\n%s\n\nAnswer in one line.", prompt.question, payload))
			if answer != "" {
				results[i] = fmt.Sprintf("%s: %s", prompt.label, answer)
			}
		}()
	}
	wg.Wait()

	var out []string
	for _, r := range results {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (p *Predictor) ask(ctx context.Context, instruction string) string {
	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: instruction},
		},
		MaxTokens: 128,
	})
	if err != nil {
		return ""
	}
	return resp.Content
}
