package fraud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Fatal777/invoisaic/internal/decision"
)

type memStore struct {
	records []decision.LearningRecord
	err     error
}

func (m *memStore) Append(ctx context.Context, rec decision.LearningRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) Query(ctx context.Context, category decision.Category, limit int) ([]decision.LearningRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

type stubInvoker struct {
	raw string
	err error
}

func (s *stubInvoker) Invoke(ctx context.Context, model, instruction string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.raw, nil
}

func TestRuleScoreFirstLargeOrder(t *testing.T) {
	eng := New(&memStore{}, &stubInvoker{err: errors.New("down")}, "m", 10000)

	a := eng.Assess(context.Background(), decision.Request{
		Category: decision.CategoryFraudCheck,
		Payload: decision.Payload{
			"amount":          100000.0,
			"country":         "DE",
			"customerHistory": map[string]any{"totalOrders": 0.0},
		},
	})
	if a.Score < 30 {
		t.Errorf("score = %d, want >= 30 for a first order above threshold", a.Score)
	}
}

func TestRuleScoreMissingLocation(t *testing.T) {
	eng := New(&memStore{}, &stubInvoker{err: errors.New("down")}, "m", 10000)

	a := eng.Assess(context.Background(), decision.Request{
		Category: decision.CategoryFraudCheck,
		Payload: decision.Payload{
			"amount":          100000.0,
			"customerHistory": map[string]any{"totalOrders": 0.0},
		},
	})
	if a.Score < 50 {
		t.Errorf("score = %d, want >= 50 for first large order plus missing location", a.Score)
	}
}

func TestVelocityRule(t *testing.T) {
	store := &memStore{}
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		store.records = append(store.records, decision.LearningRecord{
			Category:  decision.CategoryFraudCheck,
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}

	eng := New(store, &stubInvoker{err: errors.New("down")}, "m", 10000)
	a := eng.Assess(context.Background(), decision.Request{
		Category: decision.CategoryFraudCheck,
		Payload:  decision.Payload{"amount": 100.0, "country": "DE"},
	})
	if a.Score < 25 {
		t.Errorf("score = %d, want >= 25 when velocity exceeds 3/hour", a.Score)
	}
}

func TestAverageOrderValueRule(t *testing.T) {
	eng := New(&memStore{}, &stubInvoker{err: errors.New("down")}, "m", 10000)

	a := eng.Assess(context.Background(), decision.Request{
		Category: decision.CategoryFraudCheck,
		Payload: decision.Payload{
			"amount":  6000.0,
			"country": "DE",
			"customerHistory": map[string]any{
				"totalOrders":       12.0,
				"averageOrderValue": 1000.0,
			},
		},
	})
	if a.Score < 25 {
		t.Errorf("score = %d, want >= 25 when amount exceeds 5x average", a.Score)
	}
}

func TestModelScoreMaxPolicy(t *testing.T) {
	// Rules see nothing suspicious; the model does. max() means the
	// model signal alone raises the score.
	eng := New(&memStore{}, &stubInvoker{raw: `{"score": 85, "reasons": ["stolen card pattern"]}`}, "m", 10000)

	a := eng.Assess(context.Background(), decision.Request{
		Category: decision.CategoryFraudCheck,
		Payload: decision.Payload{
			"amount":          100.0,
			"country":         "DE",
			"customerHistory": map[string]any{"totalOrders": 50.0, "averageOrderValue": 120.0},
		},
	})
	if a.Score != 85 {
		t.Errorf("score = %d, want model score 85", a.Score)
	}
	if a.RiskTier != RiskHigh {
		t.Errorf("tier = %s, want HIGH", a.RiskTier)
	}
	if !a.Escalate() {
		t.Error("score 85 must escalate")
	}
}

func TestModelFailureFallsBackToRules(t *testing.T) {
	eng := New(&memStore{}, &stubInvoker{err: errors.New("timeout")}, "m", 10000)

	a := eng.Assess(context.Background(), decision.Request{
		Category: decision.CategoryFraudCheck,
		Payload:  decision.Payload{"amount": 100.0, "country": "DE", "customerHistory": map[string]any{"totalOrders": 10.0}},
	})
	if a.Score != 0 {
		t.Errorf("score = %d, want 0 when no rule fires and model is down", a.Score)
	}
	if a.RiskTier != RiskLow {
		t.Errorf("tier = %s, want LOW", a.RiskTier)
	}
	if a.ChecksPerformed != 5 {
		t.Errorf("checksPerformed = %d, want 5", a.ChecksPerformed)
	}
}

func TestHighRiskEndToEnd(t *testing.T) {
	eng := New(&memStore{}, &stubInvoker{raw: `{"score": 90, "reasons": ["no history, unknown location"]}`}, "m", 10000)

	a := eng.Assess(context.Background(), decision.Request{
		Category: decision.CategoryFraudCheck,
		Payload: decision.Payload{
			"amount":          150000.0,
			"country":         "Unknown",
			"customerHistory": map[string]any{"totalOrders": 0.0},
		},
	})
	if a.Score < 70 {
		t.Errorf("score = %d, want >= 70", a.Score)
	}
	if a.RiskTier != RiskHigh {
		t.Errorf("tier = %s, want HIGH", a.RiskTier)
	}
	if a.Score > 80 && !a.Escalate() {
		t.Error("score above 80 must mandate escalation")
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  RiskTier
	}{
		{0, RiskLow}, {40, RiskLow}, {41, RiskMedium}, {70, RiskMedium}, {71, RiskHigh}, {100, RiskHigh},
	}
	for _, tc := range cases {
		if got := tierFor(tc.score); got != tc.want {
			t.Errorf("tierFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
