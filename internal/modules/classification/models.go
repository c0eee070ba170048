// Package classification implements the asset classification decision engine:
// the override-first two-pass cascade, derived benchmarks and sub-scores, tax
// profiles, and result persistence.
package classification

import (
	"time"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/aristath/assetclass/internal/modules/benchmarks"
	"github.com/aristath/assetclass/internal/modules/rules"
)

// Source identifies which path produced a classification.
type Source string

const (
	// SourceOverride - an active manual override short-circuited the cascade.
	SourceOverride Source = "override"
	// SourceRuleEngine - pass 1 alone was confident enough.
	SourceRuleEngine Source = "rule_engine"
	// SourceRuleEngineEnrichment - enrichment ran and pass 2 produced the
	// result, whether or not confidence actually improved.
	SourceRuleEngineEnrichment Source = "rule_engine+enrichment"
)

// TaxProfile estimates the federal tax drag on a security's income stream.
type TaxProfile struct {
	IncomeType          IncomeType `json:"income_type"`
	EstimatedTaxDragPct float64    `json:"estimated_tax_drag_pct"`
	Notes               string     `json:"notes"`
}

// Result is the classification record returned to callers and persisted.
// Records are superseded by newer rows, never mutated; past valid_until a
// record is logically expired and the next request recomputes it.
type Result struct {
	ID              string                 `json:"id"`
	Ticker          string                 `json:"ticker"`
	AssetClass      string                 `json:"asset_class"`
	ParentClass     string                 `json:"parent_class"`
	Confidence      float64                `json:"confidence"`
	IsHybrid        bool                   `json:"is_hybrid"`
	Characteristics domain.Characteristics `json:"characteristics"`
	Benchmarks      *benchmarks.Profile    `json:"benchmarks,omitempty"`
	SubScores       map[string]float64     `json:"sub_scores"`
	TaxEfficiency   TaxProfile             `json:"tax_efficiency"`
	MatchedRules    []rules.RuleMatch      `json:"matched_rules"`
	Source          Source                 `json:"source"`
	ClassifiedAt    time.Time              `json:"classified_at"`
	ValidUntil      time.Time              `json:"valid_until"`
}

// FreshAt reports whether the record is still within its cache horizon.
func (r *Result) FreshAt(now time.Time) bool {
	return now.Before(r.ValidUntil)
}

// BatchError records a single ticker's failure within a batch.
type BatchError struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

// BatchOutcome carries the partial results of a batch classification.
// Partial success is the expected outcome, not a failure mode.
type BatchOutcome struct {
	Results []*Result    `json:"results"`
	Errors  []BatchError `json:"errors"`
}
