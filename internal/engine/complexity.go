package engine

import (
	"context"
	"fmt"

	"github.com/Fatal777/invoisaic/internal/decision"
)

// Complexity weights. Evaluation order is fixed and mirrored in the
// reasons list; the final value is the same regardless of order.
const (
	weightCrossBorder     = 25
	weightLargeAmount     = 15
	weightCriticalUrgency = 20
	weightHighConfidence  = 20
	precedentDiscount     = 15
	precedentFloor        = 10
)

// PrecedentSource exposes how many prior same-category decisions exist.
// The lookup is side-effecting but idempotent.
type PrecedentSource interface {
	Precedents(ctx context.Context, category decision.Category) int
}

// Scorer derives the 0-100 difficulty of a request.
type Scorer struct {
	precedents     PrecedentSource
	largeThreshold float64
}

// NewScorer creates a complexity scorer. largeThreshold is the amount
// above which a transaction counts as large.
func NewScorer(precedents PrecedentSource, largeThreshold float64) *Scorer {
	return &Scorer{precedents: precedents, largeThreshold: largeThreshold}
}

// Score computes the complexity of req with human-readable reasons in
// evaluation order.
func (s *Scorer) Score(ctx context.Context, req decision.Request) decision.ComplexityScore {
	value := 0
	var reasons []string

	if req.Payload.CrossBorder() {
		value += weightCrossBorder
		reasons = append(reasons, "cross-border transaction")
	}
	if amount, ok := req.Payload.Amount(); ok && amount > s.largeThreshold {
		value += weightLargeAmount
		reasons = append(reasons, fmt.Sprintf("amount %.2f exceeds large-transaction threshold", amount))
	}
	if req.Urgency == decision.UrgencyCritical {
		value += weightCriticalUrgency
		reasons = append(reasons, "critical urgency")
	}
	if req.RequiredConfidence > 95 {
		value += weightHighConfidence
		reasons = append(reasons, "required confidence above 95")
	}

	value += req.Category.BaseWeight()
	reasons = append(reasons, fmt.Sprintf("base weight for %s", req.Category))

	if s.precedents != nil && s.precedents.Precedents(ctx, req.Category) > precedentFloor {
		value -= precedentDiscount
		reasons = append(reasons, "ample precedent for this category")
	}

	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return decision.ComplexityScore{Value: value, Reasons: reasons}
}
