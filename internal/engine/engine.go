// Package engine implements the autonomous decision pipeline: score a
// request's complexity, pick a capability tier, enrich with retrieved
// knowledge and historical precedent, invoke the reasoning model, parse
// the output through a fallback ladder, and persist the outcome. The
// engine never returns an error to its caller; every failure mode
// degrades into a lower-confidence decision.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Fatal777/invoisaic/internal/bus"
	"github.com/Fatal777/invoisaic/internal/config"
	"github.com/Fatal777/invoisaic/internal/decision"
	"github.com/Fatal777/invoisaic/internal/extract"
	"github.com/Fatal777/invoisaic/internal/fraud"
	"github.com/Fatal777/invoisaic/internal/history"
	"github.com/Fatal777/invoisaic/internal/llm"
)

// Retriever fetches knowledge context for a request.
type Retriever interface {
	Retrieve(ctx context.Context, req decision.Request) decision.KnowledgeResult
}

// HistoryAnalyzer summarises prior decisions.
type HistoryAnalyzer interface {
	PrecedentSource
	Aggregate(ctx context.Context, category decision.Category, amount float64) decision.HistoricalAggregate
	RecentFailures(ctx context.Context, category decision.Category, n int) int
}

// FraudAssessor scores fraud-adjacent requests.
type FraudAssessor interface {
	Assess(ctx context.Context, req decision.Request) fraud.Assessment
}

// Predictor produces labelled side predictions for a request.
type Predictor interface {
	Predict(ctx context.Context, req decision.Request) []string
}

// Deps are the engine's collaborators. Retriever, History, Writer and
// Invoker are required; the rest are optional enrichment.
type Deps struct {
	Retriever Retriever
	History   HistoryAnalyzer
	Writer    history.Store
	Invoker   *Invoker
	Fraud     FraudAssessor
	Extractor extract.Extractor
	Predictor Predictor
	Bus       bus.Bus
}

// Options are the engine tunables.
type Options struct {
	LargeTransactionThreshold float64
	SnippetMaxChars           int
	EnrichmentTimeout         time.Duration
	Models                    config.TierModels
}

// Engine is the orchestrating facade.
type Engine struct {
	scorer   *Scorer
	selector *Selector
	composer *Composer
	parser   *Parser

	retriever Retriever
	history   HistoryAnalyzer
	writer    history.Store
	invoker   *Invoker
	fraud     FraudAssessor
	extractor extract.Extractor
	predictor Predictor
	bus       bus.Bus

	largeThreshold float64
	enrichTimeout  time.Duration
}

// New creates the engine from its collaborators.
func New(opts Options, deps Deps) *Engine {
	if opts.EnrichmentTimeout <= 0 {
		opts.EnrichmentTimeout = 10 * time.Second
	}
	if opts.LargeTransactionThreshold <= 0 {
		opts.LargeTransactionThreshold = 10000
	}

	return &Engine{
		scorer:   NewScorer(deps.History, opts.LargeTransactionThreshold),
		selector: NewSelector(opts.Models),
		composer: NewComposer(opts.SnippetMaxChars),
		parser:   NewParser(),

		retriever: deps.Retriever,
		history:   deps.History,
		writer:    deps.Writer,
		invoker:   deps.Invoker,
		fraud:     deps.Fraud,
		extractor: deps.Extractor,
		predictor: deps.Predictor,
		bus:       deps.Bus,

		largeThreshold: opts.LargeTransactionThreshold,
		enrichTimeout:  opts.EnrichmentTimeout,
	}
}

// Decide runs the full pipeline for one request. It always returns a
// decision: enrichment failures degrade to neutral context, inference
// failures degrade through the parser's fallback ladder, and storage
// failures are logged after the decision is already final.
func (e *Engine) Decide(ctx context.Context, req decision.Request) decision.Decision {
	start := time.Now()

	score := e.scorer.Score(ctx, req)
	strategy := e.selector.Select(score.Value, req.Urgency, req.RequiredConfidence)

	amount := -1.0
	if a, ok := req.Payload.Amount(); ok {
		amount = a
	}

	// Enrichment calls run concurrently under independent timeouts. A
	// timeout on one never cancels its siblings.
	var (
		knowledge   decision.KnowledgeResult
		aggregate   decision.HistoricalAggregate
		extraction  *extract.Result
		predictions []string
		assessment  *fraud.Assessment
	)

	var wg sync.WaitGroup
	run := func(f func(ctx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, cancel := context.WithTimeout(ctx, e.enrichTimeout)
			defer cancel()
			f(c)
		}()
	}

	run(func(c context.Context) { knowledge = e.retriever.Retrieve(c, req) })
	run(func(c context.Context) { aggregate = e.history.Aggregate(c, req.Category, amount) })

	if e.extractor != nil {
		if ref := req.Payload.String("documentRef"); ref != "" {
			run(func(c context.Context) { extraction = e.extractor.Extract(c, ref) })
		}
	}
	if e.predictor != nil && req.Category == decision.CategoryInvoiceGeneration {
		run(func(c context.Context) { predictions = e.predictor.Predict(c, req) })
	}
	if e.fraud != nil && req.Category == decision.CategoryFraudCheck {
		run(func(c context.Context) {
			a := e.fraud.Assess(c, req)
			assessment = &a
		})
	}
	wg.Wait()

	in := ComposeInput{
		Request:    req,
		Score:      score,
		Knowledge:  knowledge,
		History:    aggregate,
		Prediction: predictions,
	}
	if extraction != nil {
		in.Extraction = extraction.Fields
	}
	if assessment != nil {
		in.FraudScore = assessment.Score
		in.FraudNotes = assessment.Reasons
	}

	raw, err := e.invoker.Invoke(ctx, strategy.Model, e.composer.Compose(in))
	if err != nil {
		log.Printf("inference failed (%s): %v", llm.Classify(err), err)
		raw = ""
	}

	d := e.parser.Parse(raw, req)
	d.Insights = Insights(req, d.Confidence, e.history.RecentFailures(ctx, req.Category, recentWindow), e.largeThreshold)

	if assessment != nil && assessment.Escalate() {
		d.Action = "hold_for_review"
		d.Confidence = assessment.Score
		d.Rationale = fmt.Sprintf("fraud risk score %d (%s); transaction held for human review", assessment.Score, assessment.RiskTier)
		d.RiskFactors = append(d.RiskFactors, assessment.Reasons...)
		d.NextSteps = []string{"escalate to the fraud review queue"}
		d.Escalated = true
	}

	d.ModelUsed = strategy.Model
	d.LatencyMs = time.Since(start).Milliseconds()
	d.KnowledgeQueries = len(knowledge.Queries)

	rec := decision.LearningRecord{
		ID:             uuid.NewString(),
		Category:       req.Category,
		Payload:        req.Payload,
		Action:         d.Action,
		Rationale:      d.Rationale,
		Confidence:     d.Confidence,
		ModelUsed:      d.ModelUsed,
		RiskFactors:    d.RiskFactors,
		ReviewRequired: d.Escalated || d.Action == "manual_review_required",
		CreatedAt:      time.Now().UTC(),
	}
	if err := e.writer.Append(ctx, rec); err != nil {
		log.Printf("learning record write failed for %s: %v", req.Category, err)
	}

	e.publish(ctx, rec, d, assessment)
	return d
}

// publish emits the outcome events. Publish failures are logged only.
func (e *Engine) publish(ctx context.Context, rec decision.LearningRecord, d decision.Decision, assessment *fraud.Assessment) {
	if e.bus == nil {
		return
	}

	completed, _ := json.Marshal(map[string]any{
		"record_id": rec.ID,
		"category":  string(rec.Category),
		"decision":  d,
	})
	if err := e.bus.Publish(ctx, bus.TopicDecisionCompleted, completed); err != nil {
		log.Printf("publishing decision event: %v", err)
	}

	if !d.Escalated {
		return
	}

	riskScore := 0
	if assessment != nil {
		riskScore = assessment.Score
	}
	escalation, _ := json.Marshal(map[string]any{
		"record_id":  rec.ID,
		"category":   string(rec.Category),
		"action":     d.Action,
		"rationale":  d.Rationale,
		"confidence": d.Confidence,
		"risk_score": riskScore,
	})
	if err := e.bus.Publish(ctx, bus.TopicEscalation, escalation); err != nil {
		log.Printf("publishing escalation event: %v", err)
	}
}
