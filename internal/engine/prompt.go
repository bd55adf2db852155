package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Fatal777/invoisaic/internal/decision"
)

// ComposeInput carries everything the prompt is rendered from. All
// fields beyond the request are optional context.
type ComposeInput struct {
	Request    decision.Request
	Score      decision.ComplexityScore
	Knowledge  decision.KnowledgeResult
	History    decision.HistoricalAggregate
	Extraction map[string]string
	Prediction []string
	FraudScore int
	FraudNotes []string
}

// Composer renders a reasoning instruction. Identical inputs render
// byte-identical instructions: payload keys are serialized in sorted
// order and every section is emitted in a fixed sequence.
type Composer struct {
	snippetMaxChars int
}

// NewComposer creates a composer truncating each snippet to maxChars.
func NewComposer(maxChars int) *Composer {
	if maxChars <= 0 {
		maxChars = 600
	}
	return &Composer{snippetMaxChars: maxChars}
}

// Compose renders the instruction block.
func (c *Composer) Compose(in ComposeInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an autonomous business decision engine.\n\n")
	fmt.Fprintf(&b, "Decision category: %s\n", in.Request.Category)
	fmt.Fprintf(&b, "Urgency: %s\n", in.Request.Urgency)
	fmt.Fprintf(&b, "Required confidence: %d\n", in.Request.RequiredConfidence)
	fmt.Fprintf(&b, "Complexity: %d (%s)\n\n", in.Score.Value, strings.Join(in.Score.Reasons, "; "))

	// encoding/json sorts map keys, so the payload block is stable.
	payload, err := json.Marshal(in.Request.Payload)
	if err != nil {
		payload = []byte("{}")
	}
	fmt.Fprintf(&b, "Request payload:\n%s\n", payload)

	if len(in.Extraction) > 0 {
		b.WriteString("\nExtracted document fields:\n")
		keys := make([]string, 0, len(in.Extraction))
		for k := range in.Extraction {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, in.Extraction[k])
		}
	}

	if len(in.Prediction) > 0 {
		b.WriteString("\nModel predictions:\n")
		for _, p := range in.Prediction {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	if len(in.Knowledge.Snippets) > 0 {
		b.WriteString("\nRelevant knowledge:\n")
		for i, snip := range in.Knowledge.Snippets {
			content := truncateRunes(snip.Content, c.snippetMaxChars)
			fmt.Fprintf(&b, "[%d] (source: %s, relevance: %.2f) %s\n", i+1, snip.Source, snip.Score, content)
		}
	}

	fmt.Fprintf(&b, "\nHistorical context: %d similar cases, average confidence %.2f, success rate %.2f",
		in.History.SimilarCaseCount, in.History.AverageConfidence, in.History.SuccessRate)
	if len(in.History.RecurringIssues) > 0 {
		fmt.Fprintf(&b, ", recurring issues: %s", strings.Join(in.History.RecurringIssues, "; "))
	}
	b.WriteString("\n")

	if len(in.FraudNotes) > 0 || in.FraudScore > 0 {
		fmt.Fprintf(&b, "\nFraud assessment: rule-based risk score %d. Signals: %s\n",
			in.FraudScore, strings.Join(in.FraudNotes, "; "))
	}

	b.WriteString("\nRespond with a single JSON object and nothing else:\n")
	b.WriteString(`{"action": "<decision action>", "rationale": "<why>", "confidence": <0-100>, "riskFactors": ["..."], "nextSteps": ["..."]}`)
	b.WriteString("\n")

	return b.String()
}

// truncateRunes cuts s down to at most max runes. Cutting at a byte
// index could split a multi-byte rune, so the cut happens on a rune
// boundary.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
