package decision

import "time"

// ComplexityScore is the derived difficulty of a request, with the
// human-readable reasons that produced it in evaluation order.
type ComplexityScore struct {
	Value   int      `json:"value"`
	Reasons []string `json:"reasons"`
}

// Snippet is a retrieved knowledge fragment with its relevance score,
// source reference and the query that produced it.
type Snippet struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
	Query   string  `json:"query"`
}

// KnowledgeResult holds the retrieval context for a request. An empty
// result is a valid, non-error state.
type KnowledgeResult struct {
	Queries  []string  `json:"queries"`
	Snippets []Snippet `json:"snippets"`
}

// HistoricalAggregate summarises prior same-category decisions judged
// similar to the current request.
type HistoricalAggregate struct {
	SimilarCaseCount  int      `json:"similarCaseCount"`
	AverageConfidence float64  `json:"averageConfidence"` // 0-1
	SuccessRate       float64  `json:"successRate"`       // 0-1
	RecurringIssues   []string `json:"recurringIssues"`   // at most 5
}

// NeutralAggregate is the aggregate used when history is unavailable.
// Absence of history must never bias a decision pessimistically, so the
// success rate defaults to 1.
func NeutralAggregate() HistoricalAggregate {
	return HistoricalAggregate{SuccessRate: 1}
}

// Decision is the authoritative output of the engine. Created once per
// request and never mutated after return.
type Decision struct {
	Action           string   `json:"action"`
	Rationale        string   `json:"rationale"`
	Confidence       int      `json:"confidence"` // 0-100
	ModelUsed        string   `json:"modelUsed"`
	LatencyMs        int64    `json:"latencyMs"`
	Insights         []string `json:"insights"`
	NextSteps        []string `json:"nextSteps"`
	RiskFactors      []string `json:"riskFactors"`
	KnowledgeQueries int      `json:"knowledgeQueries"`
	Escalated        bool     `json:"escalated"`
}

// LearningRecord is the immutable stored tuple of request and decision
// used to inform future history lookups. Append-only; never updated.
type LearningRecord struct {
	ID             string    `json:"id"`
	Category       Category  `json:"category"`
	Payload        Payload   `json:"payload"`
	Action         string    `json:"action"`
	Rationale      string    `json:"rationale"`
	Confidence     int       `json:"confidence"`
	ModelUsed      string    `json:"modelUsed"`
	RiskFactors    []string  `json:"riskFactors"`
	ReviewRequired bool      `json:"reviewRequired"`
	CreatedAt      time.Time `json:"createdAt"`
}
