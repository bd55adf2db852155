package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Fatal777/invoisaic/internal/db"
	"github.com/Fatal777/invoisaic/internal/decision"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewSQLiteStore(database)
}

func TestAppendAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := decision.LearningRecord{
		Category:    decision.CategoryInvoiceGeneration,
		Payload:     decision.Payload{"amount": 1200.0, "country": "Germany"},
		Action:      "generate_invoice",
		Rationale:   "standard domestic invoice",
		Confidence:  91,
		ModelUsed:   "gpt-4o-mini",
		RiskFactors: []string{"missing_vat_id"},
	}
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := store.Query(ctx, decision.CategoryInvoiceGeneration, 10)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.ID == "" {
		t.Error("expected generated record ID")
	}
	if got.Action != "generate_invoice" || got.Confidence != 91 {
		t.Errorf("unexpected record: %+v", got)
	}
	amount, ok := got.Payload.Amount()
	if !ok || amount != 1200 {
		t.Errorf("payload amount round-trip: got (%v, %v)", amount, ok)
	}
	if len(got.RiskFactors) != 1 || got.RiskFactors[0] != "missing_vat_id" {
		t.Errorf("risk factors round-trip: got %v", got.RiskFactors)
	}
}

func TestQueryOrdersMostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := decision.LearningRecord{
			ID:         fmt.Sprintf("rec-%d", i),
			Category:   decision.CategoryFraudCheck,
			Action:     "flag_for_review",
			Confidence: 70 + i,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	records, err := store.Query(ctx, decision.CategoryFraudCheck, 3)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ID != "rec-4" || records[2].ID != "rec-2" {
		t.Errorf("expected most recent first, got %q..%q", records[0].ID, records[2].ID)
	}
}

func TestQueryFiltersByCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Append(ctx, decision.LearningRecord{Category: decision.CategoryFraudCheck, Action: "a", Confidence: 50})
	store.Append(ctx, decision.LearningRecord{Category: decision.CategoryTaxOptimization, Action: "b", Confidence: 60})

	records, err := store.Query(ctx, decision.CategoryFraudCheck, 10)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 1 || records[0].Action != "a" {
		t.Errorf("expected only fraud_check records, got %+v", records)
	}
}

// failingStore always errors, for degradation tests.
type failingStore struct{}

func (failingStore) Append(ctx context.Context, rec decision.LearningRecord) error {
	return errors.New("store down")
}

func (failingStore) Query(ctx context.Context, category decision.Category, limit int) ([]decision.LearningRecord, error) {
	return nil, errors.New("store down")
}

func TestAggregateNeutralOnStoreFailure(t *testing.T) {
	analyzer := NewAnalyzer(failingStore{}, 50)
	agg := analyzer.Aggregate(context.Background(), decision.CategoryFraudCheck, 100)

	if agg.SimilarCaseCount != 0 || agg.AverageConfidence != 0 || agg.SuccessRate != 1 {
		t.Errorf("expected neutral aggregate on failure, got %+v", agg)
	}
}

func TestAggregateEmptyHistory(t *testing.T) {
	analyzer := NewAnalyzer(newTestStore(t), 50)
	agg := analyzer.Aggregate(context.Background(), decision.CategoryComplianceValidation, 500)

	if agg.SimilarCaseCount != 0 || agg.AverageConfidence != 0 || agg.SuccessRate != 1 || len(agg.RecurringIssues) != 0 {
		t.Errorf("expected neutral aggregate for empty history, got %+v", agg)
	}
}

func TestAggregateAmountSimilarityFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// 1000 is within 20% of 1100; 5000 is not.
	store.Append(ctx, decision.LearningRecord{
		Category: decision.CategoryInvoiceGeneration,
		Payload:  decision.Payload{"amount": 1000.0},
		Action:   "generate_invoice", Confidence: 90,
		RiskFactors: []string{"late_payment"},
	})
	store.Append(ctx, decision.LearningRecord{
		Category: decision.CategoryInvoiceGeneration,
		Payload:  decision.Payload{"amount": 5000.0},
		Action:   "generate_invoice", Confidence: 40,
	})

	analyzer := NewAnalyzer(store, 50)
	agg := analyzer.Aggregate(ctx, decision.CategoryInvoiceGeneration, 1100)

	if agg.SimilarCaseCount != 1 {
		t.Fatalf("expected 1 similar case, got %d", agg.SimilarCaseCount)
	}
	if agg.AverageConfidence != 0.9 {
		t.Errorf("expected average confidence 0.9, got %v", agg.AverageConfidence)
	}
	if agg.SuccessRate != 1 {
		t.Errorf("expected success rate 1, got %v", agg.SuccessRate)
	}
	if len(agg.RecurringIssues) != 1 || agg.RecurringIssues[0] != "late_payment" {
		t.Errorf("unexpected recurring issues: %v", agg.RecurringIssues)
	}
}

func TestAggregateNoAmountKeepsAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Append(ctx, decision.LearningRecord{
		Category: decision.CategoryTaxOptimization,
		Payload:  decision.Payload{"amount": 100.0},
		Action:   "apply_optimization", Confidence: 90,
	})
	store.Append(ctx, decision.LearningRecord{
		Category: decision.CategoryTaxOptimization,
		Payload:  decision.Payload{"amount": 90000.0},
		Action:   "apply_optimization", Confidence: 60,
	})

	analyzer := NewAnalyzer(store, 50)
	agg := analyzer.Aggregate(ctx, decision.CategoryTaxOptimization, -1)

	if agg.SimilarCaseCount != 2 {
		t.Errorf("expected 2 similar cases without amount filter, got %d", agg.SimilarCaseCount)
	}
	if agg.SuccessRate != 0.5 {
		t.Errorf("expected success rate 0.5, got %v", agg.SuccessRate)
	}
}

func TestAggregateCapsRecurringIssues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		store.Append(ctx, decision.LearningRecord{
			Category: decision.CategoryFraudCheck,
			Payload:  decision.Payload{"amount": 500.0},
			Action:   "flag_for_review", Confidence: 85,
			RiskFactors: []string{
				fmt.Sprintf("issue_%d_a", i),
				fmt.Sprintf("issue_%d_b", i),
				"shared_issue",
			},
		})
	}

	analyzer := NewAnalyzer(store, 50)
	agg := analyzer.Aggregate(ctx, decision.CategoryFraudCheck, 500)

	if len(agg.RecurringIssues) > 5 {
		t.Errorf("expected at most 5 recurring issues, got %d", len(agg.RecurringIssues))
	}
	// Distinctness: shared_issue should appear only once.
	seen := 0
	for _, issue := range agg.RecurringIssues {
		if issue == "shared_issue" {
			seen++
		}
	}
	if seen > 1 {
		t.Errorf("expected shared_issue deduplicated, saw %d times", seen)
	}
}

func TestRecentFailures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	confidences := []int{90, 50, 60, 95, 40}
	for i, c := range confidences {
		store.Append(ctx, decision.LearningRecord{
			ID:       fmt.Sprintf("r%d", i),
			Category: decision.CategoryInvoiceGeneration,
			Action:   "generate_invoice", Confidence: c,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	analyzer := NewAnalyzer(store, 50)
	failures := analyzer.RecentFailures(ctx, decision.CategoryInvoiceGeneration, 5)
	if failures != 3 {
		t.Errorf("expected 3 failures among last 5, got %d", failures)
	}
}
