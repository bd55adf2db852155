package decision

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Category identifies the business event a decision request belongs to.
// It is a closed enumeration: every category carries its own scoring
// weight, fallback action and knowledge query templates so that adding
// a category is a single-file change.
type Category string

const (
	CategoryInvoiceGeneration    Category = "invoice_generation"
	CategoryFraudCheck           Category = "fraud_check"
	CategoryTaxOptimization      Category = "tax_optimization"
	CategoryComplianceValidation Category = "compliance_validation"
)

// Categories lists all known categories in a stable order.
var Categories = []Category{
	CategoryInvoiceGeneration,
	CategoryFraudCheck,
	CategoryTaxOptimization,
	CategoryComplianceValidation,
}

// Known reports whether c is one of the closed category set.
func (c Category) Known() bool {
	switch c {
	case CategoryInvoiceGeneration, CategoryFraudCheck, CategoryTaxOptimization, CategoryComplianceValidation:
		return true
	}
	return false
}

// BaseWeight is the category's contribution to the complexity score.
func (c Category) BaseWeight() int {
	switch c {
	case CategoryInvoiceGeneration:
		return 10
	case CategoryFraudCheck:
		return 30
	case CategoryTaxOptimization:
		return 40
	case CategoryComplianceValidation:
		return 35
	default:
		return 20
	}
}

// FallbackAction is the action used when the reasoning output cannot be
// parsed into a structured decision.
func (c Category) FallbackAction() string {
	switch c {
	case CategoryInvoiceGeneration:
		return "generate_invoice"
	case CategoryFraudCheck:
		return "flag_for_review"
	case CategoryTaxOptimization:
		return "apply_optimization"
	case CategoryComplianceValidation:
		return "approve"
	default:
		return "manual_review_required"
	}
}

// QueryTemplates derives 1-3 retrieval queries for the category from the
// request payload. Queries are ordered most-specific first.
func (c Category) QueryTemplates(p Payload) []string {
	country, _ := p.Country()
	product := p.String("productCategory")

	var queries []string
	switch c {
	case CategoryInvoiceGeneration:
		queries = append(queries, "invoice requirements and mandatory fields")
		if country != "" {
			queries = append(queries, fmt.Sprintf("invoice regulations %s", country))
		}
		if product != "" {
			queries = append(queries, fmt.Sprintf("invoicing rules for %s products", product))
		}
	case CategoryFraudCheck:
		queries = append(queries, "transaction fraud indicators and typologies")
		if country != "" {
			queries = append(queries, fmt.Sprintf("fraud patterns %s", country))
		}
	case CategoryTaxOptimization:
		queries = append(queries, "tax optimization strategies")
		if country != "" {
			queries = append(queries, fmt.Sprintf("tax treaties and rates %s", country))
		}
		if product != "" {
			queries = append(queries, fmt.Sprintf("tax treatment of %s", product))
		}
	case CategoryComplianceValidation:
		queries = append(queries, "compliance validation checklist")
		if country != "" {
			queries = append(queries, fmt.Sprintf("regulatory requirements %s", country))
		}
	default:
		queries = append(queries, fmt.Sprintf("business rules for %s", string(c)))
	}
	return queries
}

// Urgency expresses how quickly the caller needs an answer.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Payload is untyped domain data attached to a request. The engine only
// reads a handful of well-known keys; everything else passes through to
// the prompt and the learning store untouched.
type Payload map[string]any

// Well-known payload keys.
const (
	KeyAmount      = "amount"
	KeyCountry     = "country"
	KeyCrossBorder = "crossBorder"
)

// Amount returns the transaction amount if present and numeric.
func (p Payload) Amount() (float64, bool) {
	return p.Float(KeyAmount)
}

// Country returns the country field if present and non-empty.
func (p Payload) Country() (string, bool) {
	s := p.String(KeyCountry)
	return s, s != ""
}

// CrossBorder reports whether the cross-border flag is set.
func (p Payload) CrossBorder() bool {
	switch v := p[KeyCrossBorder].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// Float reads a numeric payload field, tolerating the JSON decodings a
// webhook payload may arrive as (float64, json.Number, numeric string).
func (p Payload) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// String reads a string payload field, or "" if absent.
func (p Payload) String(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Request is a single decision request. It is immutable once created;
// the engine never writes to it.
type Request struct {
	Category           Category `json:"category"`
	Payload            Payload  `json:"payload"`
	Urgency            Urgency  `json:"urgency"`
	RequiredConfidence int      `json:"requiredConfidence"`
}
