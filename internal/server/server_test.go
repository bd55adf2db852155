package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"encoding/json"

	"github.com/Fatal777/invoisaic/internal/config"
	"github.com/Fatal777/invoisaic/internal/db"
	"github.com/Fatal777/invoisaic/internal/decision"
	"github.com/Fatal777/invoisaic/internal/engine"
	"github.com/Fatal777/invoisaic/internal/fraud"
	"github.com/Fatal777/invoisaic/internal/history"
	"github.com/Fatal777/invoisaic/internal/llm"
	"github.com/Fatal777/invoisaic/internal/notifications"
)

type mockProvider struct {
	content string
}

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: m.content, Model: req.Model}, nil
}

func (m *mockProvider) Name() string { return "mock" }

type emptyRetriever struct{}

func (emptyRetriever) Retrieve(ctx context.Context, req decision.Request) decision.KnowledgeResult {
	return decision.KnowledgeResult{}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	provider := &mockProvider{content: `{"action": "approve", "rationale": "ok", "confidence": 90}`}
	store := history.NewSQLiteStore(database)
	analyzer := history.NewAnalyzer(store, 50)
	invoker := engine.NewInvoker(provider, 512, 5*time.Second)
	fraudEngine := fraud.New(store, invoker, "m-balanced", 10000)

	eng := engine.New(engine.Options{
		LargeTransactionThreshold: 10000,
		EnrichmentTimeout:         time.Second,
		Models:                    config.TierModels{Fast: "m-fast", Balanced: "m-balanced", Deep: "m-deep"},
	}, engine.Deps{
		Retriever: emptyRetriever{},
		History:   analyzer,
		Writer:    store,
		Invoker:   invoker,
		Fraud:     fraudEngine,
	})

	return New(Config{Port: 0}, eng, fraudEngine, store, notifications.NewStore(database))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestDecideEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := `{"category": "compliance_validation", "payload": {"amount": 500}, "urgency": "low", "requiredConfidence": 80}`
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/decisions", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var d decision.Decision
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if d.Action != "approve" {
		t.Errorf("action = %q, want approve", d.Action)
	}
	if d.Confidence != 90 {
		t.Errorf("confidence = %d, want 90", d.Confidence)
	}

	// The decision must have been recorded for future history lookups.
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/decisions?category=compliance_validation", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var records []decision.LearningRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decoding records: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 learning record, got %d", len(records))
	}
}

func TestDecideEndpointRejectsMissingCategory(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/decisions", strings.NewReader(`{"payload": {}}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDecideEndpointRejectsUnknownCategory(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/decisions",
		strings.NewReader(`{"category": "payroll_audit", "payload": {}}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknown category") {
		t.Errorf("body = %s, want unknown category error", rec.Body.String())
	}
}

func TestFraudEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := `{"payload": {"amount": 150000, "country": "Unknown", "customerHistory": {"totalOrders": 0}}}`
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fraud/assess", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var a fraud.Assessment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("decoding assessment: %v", err)
	}
	if a.Score < 50 {
		t.Errorf("score = %d, want >= 50 for rule hits alone", a.Score)
	}
}

func TestSubscriberEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/subscribers",
		strings.NewReader(`{"name": "ops", "webhook_url": "http://example.com/hook", "severity_filter": "warning"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("notifications list status = %d", rec.Code)
	}
}
