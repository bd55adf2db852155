// Package fraud implements the hybrid rule-based and model-based fraud
// scorer. It is consumable by the decision pipeline for fraud-adjacent
// categories but carries no dependency on it.
package fraud

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Fatal777/invoisaic/internal/decision"
	"github.com/Fatal777/invoisaic/internal/history"
	"github.com/Fatal777/invoisaic/internal/llm"
)

// RiskTier buckets a fraud score.
type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// escalationScore is the score above which a HIGH-tier assessment must
// be routed to human review.
const escalationScore = 80

// velocityFloor is the orders-per-hour count above which the velocity
// rule fires.
const velocityFloor = 3

// Assessment is the outcome of a fraud check.
type Assessment struct {
	Score           int      `json:"score"`
	RiskTier        RiskTier `json:"riskTier"`
	Reasons         []string `json:"reasons"`
	ChecksPerformed int      `json:"checksPerformed"`
}

// Escalate reports whether the assessment mandates human review.
func (a Assessment) Escalate() bool {
	return a.RiskTier == RiskHigh && a.Score > escalationScore
}

// Invoker performs a single model call. Satisfied by the engine's
// inference invoker.
type Invoker interface {
	Invoke(ctx context.Context, model, instruction string) (string, error)
}

// Engine scores requests with fixed rules and one model call, combining
// them via max(). The max() policy deliberately optimizes for recall:
// either signal alone is enough to raise the score.
type Engine struct {
	store     history.Store
	invoker   Invoker
	model     string
	threshold float64
}

// New creates a fraud engine. threshold is the large-transaction amount;
// model names the reasoning model for the model-based score.
func New(store history.Store, invoker Invoker, model string, threshold float64) *Engine {
	return &Engine{store: store, invoker: invoker, model: model, threshold: threshold}
}

// Assess runs the rule checks and the model check against req.
func (e *Engine) Assess(ctx context.Context, req decision.Request) Assessment {
	amount, _ := req.Payload.Amount()
	hist := customerHistory(req.Payload)

	score := 0
	checks := 0
	var reasons []string

	checks++
	if orders, ok := hist.Float("totalOrders"); ok && orders == 0 && amount > e.threshold {
		score += 30
		reasons = append(reasons, "first order exceeds the large-transaction threshold")
	}

	checks++
	if country, ok := req.Payload.Country(); !ok || strings.EqualFold(country, "unknown") {
		score += 20
		reasons = append(reasons, "location missing or unknown")
	}

	checks++
	if v := e.velocity(ctx, req.Category); v > velocityFloor {
		score += 25
		reasons = append(reasons, fmt.Sprintf("%d orders in the last hour", v))
	}

	checks++
	if avg, ok := hist.Float("averageOrderValue"); ok && avg > 0 && amount > 5*avg {
		score += 25
		reasons = append(reasons, "amount exceeds 5x the customer's average order value")
	}

	checks++
	modelScore, modelReasons := e.modelScore(ctx, req)
	reasons = append(reasons, modelReasons...)

	final := score
	if modelScore > final {
		final = modelScore
	}
	if final > 100 {
		final = 100
	}

	return Assessment{
		Score:           final,
		RiskTier:        tierFor(final),
		Reasons:         reasons,
		ChecksPerformed: checks,
	}
}

func tierFor(score int) RiskTier {
	switch {
	case score > 70:
		return RiskHigh
	case score > 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// velocity counts same-category decisions recorded within the last hour.
func (e *Engine) velocity(ctx context.Context, category decision.Category) int {
	records, err := e.store.Query(ctx, category, 50)
	if err != nil {
		return 0
	}
	cutoff := time.Now().UTC().Add(-time.Hour)
	count := 0
	for _, rec := range records {
		if rec.CreatedAt.After(cutoff) {
			count++
		}
	}
	return count
}

type modelAssessment struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// modelScore asks the model for an independent 0-100 risk score. Any
// failure degrades to zero with no reasons.
func (e *Engine) modelScore(ctx context.Context, req decision.Request) (int, []string) {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		payload = []byte("{}")
	}

	instruction := fmt.Sprintf(`Assess the fraud risk of this transaction.

Transaction:
%s

Respond with a single JSON object and nothing else:
{"score": <0-100>, "reasons": ["..."]}`, payload)

	raw, err := e.invoker.Invoke(ctx, e.model, instruction)
	if err != nil {
		log.Printf("fraud model score failed: %v", err)
		return 0, nil
	}

	obj, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return 0, nil
	}
	var out modelAssessment
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return 0, nil
	}

	score := int(out.Score)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, out.Reasons
}

// customerHistory reads the nested customerHistory payload object.
func customerHistory(p decision.Payload) decision.Payload {
	if m, ok := p["customerHistory"].(map[string]any); ok {
		return decision.Payload(m)
	}
	return decision.Payload{}
}
