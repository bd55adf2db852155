// Package extract turns document references into structured fields the
// decision pipeline can fold into its reasoning context. Extraction is
// optional enrichment: a nil result means no document context, never an
// error the pipeline has to handle.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Fatal777/invoisaic/internal/llm"
)

// Result holds the extracted fields and the extractor's own confidence.
type Result struct {
	Fields     map[string]string `json:"fields"`
	Confidence float64           `json:"confidence"`
}

// Extractor pulls structured fields out of a document reference.
type Extractor interface {
	// Extract returns nil on any failure; absence of document enrichment
	// is a valid state.
	Extract(ctx context.Context, documentRef string) *Result
}

// LLMExtractor extracts fields with a single JSON-mode model call.
type LLMExtractor struct {
	provider llm.Provider
	model    string
}

// NewLLMExtractor creates an extractor using the given model.
func NewLLMExtractor(provider llm.Provider, model string) *LLMExtractor {
	return &LLMExtractor{provider: provider, model: model}
}

func (e *LLMExtractor) Extract(ctx context.Context, documentRef string) *Result {
	instruction := fmt.Sprintf(`Extract the business fields from this document.

Document:
%s

Respond with a single JSON object and nothing else:
{"fields": {"<name>": "<value>"}, "confidence": <0-1>}`, documentRef)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: instruction},
		},
		MaxTokens: 1024,
		JSONMode:  true,
	})
	if err != nil {
		log.Printf("extraction failed: %v", err)
		return nil
	}

	obj, ok := llm.ExtractJSONObject(resp.Content)
	if !ok {
		return nil
	}
	var result Result
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return nil
	}
	if len(result.Fields) == 0 {
		return nil
	}
	return &result
}
