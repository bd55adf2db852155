package engine

import (
	"github.com/Fatal777/invoisaic/internal/config"
	"github.com/Fatal777/invoisaic/internal/decision"
)

// Tier is a capability bucket ordered by cost and reasoning depth.
type Tier int

const (
	TierFast Tier = iota
	TierBalanced
	TierDeep
)

func (t Tier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierBalanced:
		return "balanced"
	case TierDeep:
		return "deep"
	}
	return "unknown"
}

// Strategy is the selected capability tier with its model identifier.
// Extended marks a Balanced selection at the upper end of its band,
// where a Deep escalation was considered but not warranted.
type Strategy struct {
	Tier     Tier
	Extended bool
	Model    string
}

// Selector maps (complexity, urgency, required confidence) to a
// strategy. Selection is total: every input maps to exactly one tier.
type Selector struct {
	models config.TierModels
}

// NewSelector creates a selector using the configured tier models.
func NewSelector(models config.TierModels) *Selector {
	return &Selector{models: models}
}

// Select picks a tier. Rule order matters: criticality forces a fast
// answer at moderate complexity, but high complexity escalates to Deep
// regardless of urgency once the fast path fails.
func (s *Selector) Select(score int, urgency decision.Urgency, requiredConfidence int) Strategy {
	switch {
	case urgency == decision.UrgencyCritical && score < 50:
		return Strategy{Tier: TierFast, Model: s.models.Fast}
	case score < 30:
		return Strategy{Tier: TierFast, Model: s.models.Fast}
	case score < 60:
		return Strategy{Tier: TierBalanced, Model: s.models.Balanced}
	case score < 80:
		return Strategy{Tier: TierBalanced, Extended: true, Model: s.models.Balanced}
	default:
		return Strategy{Tier: TierDeep, Model: s.models.Deep}
	}
}
