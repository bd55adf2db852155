package knowledge

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/Fatal777/invoisaic/internal/embeddings"
)

const collectionName = "knowledge"

// Document is a knowledge-base entry to be indexed for retrieval.
type Document struct {
	ID       string
	Content  string
	Source   string // file path or external reference
	Country  string // optional jurisdiction tag
	Category string // optional category tag
}

// SearchResult is a document with its similarity to the query.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// VectorStore is the semantic retrieval boundary. Implementations must
// tolerate concurrent readers.
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query string, topK int) ([]SearchResult, error)
	Count() int
}

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{db: db, collection: col, embedFunc: ef}, nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:      doc.ID,
			Content: doc.Content,
			Metadata: map[string]string{
				"source":   doc.Source,
				"country":  doc.Country,
				"category": doc.Category,
			},
		}
	}

	return s.collection.AddDocuments(ctx, chromDocs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Source:   r.Metadata["source"],
				Country:  r.Metadata["country"],
				Category: r.Metadata["category"],
			},
			Similarity: r.Similarity,
		}
	}

	return searchResults, nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Persist exports the store to a file under dir.
func (s *ChromemStore) Persist(dir string) error {
	return s.db.ExportToFile(dir+"/knowledge.gob.gz", true, "")
}

// Load imports a previously persisted store from dir.
func (s *ChromemStore) Load(dir string) error {
	if err := s.db.ImportFromFile(dir+"/knowledge.gob.gz", ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}
