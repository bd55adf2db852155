package history

import (
	"context"
	"log"
	"math"

	"github.com/Fatal777/invoisaic/internal/decision"
)

// successThreshold is the stored confidence above which a past case is
// counted as successful.
const successThreshold = 80

// maxRecurringIssues caps the distinct risk factors reported.
const maxRecurringIssues = 5

// Analyzer computes similarity-filtered aggregates over past decisions.
type Analyzer struct {
	store Store
	limit int
}

// NewAnalyzer creates an analyzer reading up to limit recent records per
// category from the store.
func NewAnalyzer(store Store, limit int) *Analyzer {
	if limit <= 0 {
		limit = 50
	}
	return &Analyzer{store: store, limit: limit}
}

// Aggregate fetches recent same-category records and summarises the ones
// similar to the request. amount < 0 means the request carries no amount
// and no similarity filtering is applied. Store failures degrade to the
// neutral aggregate; history is optional context, never a hard dependency.
func (a *Analyzer) Aggregate(ctx context.Context, category decision.Category, amount float64) decision.HistoricalAggregate {
	records, err := a.store.Query(ctx, category, a.limit)
	if err != nil {
		log.Printf("history query failed for %s: %v", category, err)
		return decision.NeutralAggregate()
	}
	if len(records) == 0 {
		return decision.HistoricalAggregate{SuccessRate: 1}
	}

	similar := filterSimilar(records, amount)
	if len(similar) == 0 {
		return decision.HistoricalAggregate{SuccessRate: 1}
	}

	var confidenceSum float64
	var successes int
	issueSeen := make(map[string]bool)
	var issues []string

	for _, rec := range similar {
		confidenceSum += float64(rec.Confidence)
		if rec.Confidence > successThreshold {
			successes++
		}
		for _, issue := range rec.RiskFactors {
			if issue == "" || issueSeen[issue] {
				continue
			}
			issueSeen[issue] = true
			if len(issues) < maxRecurringIssues {
				issues = append(issues, issue)
			}
		}
	}

	return decision.HistoricalAggregate{
		SimilarCaseCount:  len(similar),
		AverageConfidence: confidenceSum / float64(len(similar)) / 100,
		SuccessRate:       float64(successes) / float64(len(similar)),
		RecurringIssues:   issues,
	}
}

// Precedents returns the number of recent same-category records, without
// similarity filtering. The complexity scorer uses it to discount
// well-trodden categories. Store failures read as zero precedents.
func (a *Analyzer) Precedents(ctx context.Context, category decision.Category) int {
	records, err := a.store.Query(ctx, category, a.limit)
	if err != nil {
		return 0
	}
	return len(records)
}

// RecentFailures counts how many of the most recent n same-category
// records were unsuccessful. Used by the insight generator.
func (a *Analyzer) RecentFailures(ctx context.Context, category decision.Category, n int) int {
	records, err := a.store.Query(ctx, category, n)
	if err != nil {
		return 0
	}
	failures := 0
	for _, rec := range records {
		if rec.Confidence <= successThreshold {
			failures++
		}
	}
	return failures
}

// filterSimilar keeps records whose amount is within 20% of the request
// amount. Without a request amount all records are similar.
func filterSimilar(records []decision.LearningRecord, amount float64) []decision.LearningRecord {
	if amount < 0 {
		return records
	}

	similar := make([]decision.LearningRecord, 0, len(records))
	for _, rec := range records {
		recAmount, ok := rec.Payload.Amount()
		if !ok {
			continue
		}
		if amount == 0 {
			if recAmount == 0 {
				similar = append(similar, rec)
			}
			continue
		}
		if math.Abs(recAmount-amount)/amount < 0.2 {
			similar = append(similar, rec)
		}
	}
	return similar
}
