package knowledge

import (
	"context"
	"log"

	"github.com/Fatal777/invoisaic/internal/decision"
)

// Retriever derives category-specific queries from a request and fetches
// ranked snippets from the vector store. Retrieval is always optional
// context: any failure degrades to an empty result.
type Retriever struct {
	store VectorStore
	topK  int
}

// NewRetriever creates a retriever fetching topK snippets per query.
func NewRetriever(store VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{store: store, topK: topK}
}

// Retrieve issues the category's templated queries and concatenates the
// results, tagging each snippet with the query that produced it.
func (r *Retriever) Retrieve(ctx context.Context, req decision.Request) decision.KnowledgeResult {
	queries := req.Category.QueryTemplates(req.Payload)

	var snippets []decision.Snippet
	for _, query := range queries {
		results, err := r.store.Search(ctx, query, r.topK)
		if err != nil {
			log.Printf("knowledge retrieval failed for %q: %v", query, err)
			return decision.KnowledgeResult{}
		}
		for _, res := range results {
			snippets = append(snippets, decision.Snippet{
				Content: res.Document.Content,
				Score:   float64(res.Similarity),
				Source:  res.Document.Source,
				Query:   query,
			})
		}
	}

	return decision.KnowledgeResult{Queries: queries, Snippets: snippets}
}
