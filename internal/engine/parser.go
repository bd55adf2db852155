package engine

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/Fatal777/invoisaic/internal/decision"
	"github.com/Fatal777/invoisaic/internal/llm"
)

// fallbackConfidence is used when the heuristic path finds no explicit
// confidence in the raw text.
const fallbackConfidence = 75

// failureConfidence is used when inference produced no text at all.
const failureConfidence = 50

// rationaleMaxChars bounds the raw-text prefix surfaced as rationale on
// the heuristic path.
const rationaleMaxChars = 280

// ParseStrategy attempts to turn raw model output into decision fields.
// Strategies are explicit objects so tests can target each one.
type ParseStrategy interface {
	Parse(raw string, req decision.Request) (decision.Decision, bool)
}

// Parser runs its strategies in order and falls back to a static
// manual-review decision when no text is available. It never fails.
type Parser struct {
	strategies []ParseStrategy
}

// NewParser creates the standard parser: structured JSON extraction
// first, textual heuristics second.
func NewParser() *Parser {
	return &Parser{strategies: []ParseStrategy{JSONStrategy{}, HeuristicStrategy{}}}
}

// Parse extracts a decision from raw text. An empty raw string means
// inference failed entirely; the result is then the static degraded
// decision.
func (p *Parser) Parse(raw string, req decision.Request) decision.Decision {
	if strings.TrimSpace(raw) == "" {
		return decision.Decision{
			Action:     "manual_review_required",
			Rationale:  "automatic decision failed, human review recommended",
			Confidence: failureConfidence,
			NextSteps:  []string{"route to a human reviewer"},
		}
	}

	for _, strat := range p.strategies {
		if d, ok := strat.Parse(raw, req); ok {
			return d
		}
	}

	// HeuristicStrategy always succeeds on non-empty text, so this is
	// unreachable; kept so the strategy list stays open.
	return decision.Decision{
		Action:     req.Category.FallbackAction(),
		Confidence: fallbackConfidence,
	}
}

// JSONStrategy parses the first balanced JSON object in the raw text
// against the structured output contract.
type JSONStrategy struct{}

type structuredOutput struct {
	Action      string   `json:"action"`
	Rationale   string   `json:"rationale"`
	Confidence  float64  `json:"confidence"`
	RiskFactors []string `json:"riskFactors"`
	NextSteps   []string `json:"nextSteps"`
}

func (JSONStrategy) Parse(raw string, _ decision.Request) (decision.Decision, bool) {
	obj, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return decision.Decision{}, false
	}

	var out structuredOutput
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return decision.Decision{}, false
	}
	if out.Action == "" {
		return decision.Decision{}, false
	}

	return decision.Decision{
		Action:      out.Action,
		Rationale:   out.Rationale,
		Confidence:  clampConfidence(int(out.Confidence)),
		RiskFactors: out.RiskFactors,
		NextSteps:   out.NextSteps,
	}, true
}

// HeuristicStrategy recovers a usable decision from free-form text: the
// action comes from the category's fallback table and the confidence
// from a "confidence: NN" pattern in the text, defaulting to 75.
type HeuristicStrategy struct{}

var confidencePattern = regexp.MustCompile(`(?i)confidence\s*[:=]?\s*(\d{1,3})`)

func (HeuristicStrategy) Parse(raw string, req decision.Request) (decision.Decision, bool) {
	confidence := fallbackConfidence
	if m := confidencePattern.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			confidence = clampConfidence(n)
		}
	}

	rationale := truncateRunes(strings.TrimSpace(raw), rationaleMaxChars)

	return decision.Decision{
		Action:     req.Category.FallbackAction(),
		Rationale:  rationale,
		Confidence: confidence,
		NextSteps:  []string{"review the suggested action before applying it"},
	}, true
}

func clampConfidence(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
