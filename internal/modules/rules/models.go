// Package rules implements the classification rule store and rule engine.
package rules

import (
	"fmt"
	"regexp"
)

// RuleType identifies the matching strategy a rule uses.
type RuleType string

const (
	// RuleTypeTickerPattern matches the ticker symbol against a regex.
	RuleTypeTickerPattern RuleType = "ticker_pattern"
	// RuleTypeSector matches the "sector" characteristic by name.
	RuleTypeSector RuleType = "sector"
	// RuleTypeFeature matches when a characteristic flag is truthy.
	RuleTypeFeature RuleType = "feature"
	// RuleTypeMetadata matches a characteristic key against an expected value.
	RuleTypeMetadata RuleType = "metadata"
)

// RuleConfig holds the type-specific matching parameters. Exactly the fields
// for the rule's type are set; Validate enforces the correspondence so the
// engine's dispatch stays exhaustive.
type RuleConfig struct {
	Pattern string `json:"pattern,omitempty"` // ticker_pattern: regex applied to the ticker
	Sector  string `json:"sector,omitempty"`  // sector: sector name, case-insensitive
	Feature string `json:"feature,omitempty"` // feature: characteristic key that must be truthy
	Key     string `json:"key,omitempty"`     // metadata: characteristic key
	Value   string `json:"value,omitempty"`   // metadata: expected value
}

// Validate checks that the config carries the fields its rule type needs.
func (c RuleConfig) Validate(ruleType RuleType) error {
	switch ruleType {
	case RuleTypeTickerPattern:
		if c.Pattern == "" {
			return fmt.Errorf("ticker_pattern rule requires a pattern")
		}
		if _, err := regexp.Compile(c.Pattern); err != nil {
			return fmt.Errorf("invalid ticker pattern %q: %w", c.Pattern, err)
		}
	case RuleTypeSector:
		if c.Sector == "" {
			return fmt.Errorf("sector rule requires a sector name")
		}
	case RuleTypeFeature:
		if c.Feature == "" {
			return fmt.Errorf("feature rule requires a feature key")
		}
	case RuleTypeMetadata:
		if c.Key == "" || c.Value == "" {
			return fmt.Errorf("metadata rule requires both key and value")
		}
	default:
		return fmt.Errorf("unknown rule type: %s", ruleType)
	}
	return nil
}

// Rule is a single classification rule. Rules are immutable once stored
// except via explicit update; deactivation is the retirement path.
type Rule struct {
	ID               string     `json:"id"`
	AssetClass       string     `json:"asset_class"`
	RuleType         RuleType   `json:"rule_type"`
	Config           RuleConfig `json:"rule_config"`
	Priority         int        `json:"priority"` // Lower = evaluated first
	ConfidenceWeight float64    `json:"confidence_weight"`
	Active           bool       `json:"active"`
	CreatedAt        int64      `json:"created_at"`
	UpdatedAt        int64      `json:"updated_at"`
}

// Validate checks rule fields before any engine work happens.
func (r *Rule) Validate() error {
	if r.AssetClass == "" {
		return fmt.Errorf("rule requires an asset class")
	}
	if r.ConfidenceWeight <= 0 || r.ConfidenceWeight > 1 {
		return fmt.Errorf("confidence weight must be in (0,1], got %f", r.ConfidenceWeight)
	}
	return r.Config.Validate(r.RuleType)
}

// RuleMatch records a rule that fired during evaluation, with its class
// attribution so hybrid results can report both sides.
type RuleMatch struct {
	RuleID     string  `json:"rule_id"`
	AssetClass string  `json:"asset_class"`
	Weight     float64 `json:"weight"`
}
