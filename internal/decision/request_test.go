package decision

import (
	"encoding/json"
	"testing"
)

func TestCategoryBaseWeights(t *testing.T) {
	tests := []struct {
		category Category
		want     int
	}{
		{CategoryInvoiceGeneration, 10},
		{CategoryFraudCheck, 30},
		{CategoryTaxOptimization, 40},
		{CategoryComplianceValidation, 35},
		{Category("something_else"), 20},
	}

	for _, tt := range tests {
		if got := tt.category.BaseWeight(); got != tt.want {
			t.Errorf("BaseWeight(%q) = %d, want %d", tt.category, got, tt.want)
		}
	}
}

func TestCategoryFallbackActions(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{CategoryInvoiceGeneration, "generate_invoice"},
		{CategoryFraudCheck, "flag_for_review"},
		{CategoryTaxOptimization, "apply_optimization"},
		{CategoryComplianceValidation, "approve"},
		{Category("mystery"), "manual_review_required"},
	}

	for _, tt := range tests {
		if got := tt.category.FallbackAction(); got != tt.want {
			t.Errorf("FallbackAction(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestQueryTemplatesBounds(t *testing.T) {
	full := Payload{"country": "Germany", "productCategory": "software"}
	empty := Payload{}

	for _, c := range Categories {
		for _, p := range []Payload{full, empty} {
			queries := c.QueryTemplates(p)
			if len(queries) < 1 || len(queries) > 3 {
				t.Errorf("category %q: got %d queries, want 1-3", c, len(queries))
			}
		}
	}
}

func TestQueryTemplatesUseCountry(t *testing.T) {
	queries := CategoryTaxOptimization.QueryTemplates(Payload{"country": "France"})
	found := false
	for _, q := range queries {
		if q == "tax treaties and rates France" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected country-templated query, got %v", queries)
	}
}

func TestPayloadAmountDecodings(t *testing.T) {
	tests := []struct {
		name string
		p    Payload
		want float64
		ok   bool
	}{
		{"float64", Payload{"amount": 1500.5}, 1500.5, true},
		{"int", Payload{"amount": 1500}, 1500, true},
		{"json number", Payload{"amount": json.Number("42")}, 42, true},
		{"numeric string", Payload{"amount": "99.9"}, 99.9, true},
		{"non numeric string", Payload{"amount": "lots"}, 0, false},
		{"absent", Payload{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.p.Amount()
			if ok != tt.ok || got != tt.want {
				t.Errorf("Amount() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPayloadCrossBorder(t *testing.T) {
	if !(Payload{"crossBorder": true}).CrossBorder() {
		t.Error("expected true for bool flag")
	}
	if !(Payload{"crossBorder": "TRUE"}).CrossBorder() {
		t.Error("expected true for string flag")
	}
	if (Payload{}).CrossBorder() {
		t.Error("expected false for absent flag")
	}
}

func TestKnownCategories(t *testing.T) {
	for _, c := range Categories {
		if !c.Known() {
			t.Errorf("category %q should be known", c)
		}
	}
	if Category("nope").Known() {
		t.Error("unexpected known category")
	}
}

func TestNeutralAggregate(t *testing.T) {
	agg := NeutralAggregate()
	if agg.SimilarCaseCount != 0 || agg.AverageConfidence != 0 || agg.SuccessRate != 1 || len(agg.RecurringIssues) != 0 {
		t.Errorf("unexpected neutral aggregate: %+v", agg)
	}
}
