package testing

import (
	"github.com/aristath/assetclass/internal/domain"
	"github.com/aristath/assetclass/internal/modules/overrides"
	"github.com/aristath/assetclass/internal/modules/rules"
)

// NewRuleFixtures returns a representative rule set covering every rule type:
// a ticker pattern for covered call funds, feature and metadata rules for
// ETFs, and a sector rule for REITs. Priorities and weights mirror a
// plausible production rule set.
func NewRuleFixtures() []*rules.Rule {
	return []*rules.Rule{
		{
			ID:               "rule-ticker-covered-call",
			AssetClass:       domain.ClassCoveredCallETF,
			RuleType:         rules.RuleTypeTickerPattern,
			Config:           rules.RuleConfig{Pattern: "^(JEPI|JEPQ|QYLD|XYLD|DIVO)$"},
			Priority:         10,
			ConfidenceWeight: 0.9,
			Active:           true,
		},
		{
			ID:               "rule-feature-covered-call",
			AssetClass:       domain.ClassCoveredCallETF,
			RuleType:         rules.RuleTypeFeature,
			Config:           rules.RuleConfig{Feature: "options_strategy_present"},
			Priority:         20,
			ConfidenceWeight: 0.8,
			Active:           true,
		},
		{
			ID:               "rule-feature-etf",
			AssetClass:       domain.ClassIndexETF,
			RuleType:         rules.RuleTypeFeature,
			Config:           rules.RuleConfig{Feature: "is_etf"},
			Priority:         30,
			ConfidenceWeight: 0.5,
			Active:           true,
		},
		{
			ID:               "rule-sector-reit",
			AssetClass:       domain.ClassEquityREIT,
			RuleType:         rules.RuleTypeSector,
			Config:           rules.RuleConfig{Sector: "Real Estate"},
			Priority:         40,
			ConfidenceWeight: 0.7,
			Active:           true,
		},
		{
			ID:               "rule-metadata-preferred",
			AssetClass:       domain.ClassPreferredStock,
			RuleType:         rules.RuleTypeMetadata,
			Config:           rules.RuleConfig{Key: "security_type", Value: "preferred"},
			Priority:         50,
			ConfidenceWeight: 0.8,
			Active:           true,
		},
		{
			ID:               "rule-inactive",
			AssetClass:       domain.ClassBondETF,
			RuleType:         rules.RuleTypeFeature,
			Config:           rules.RuleConfig{Feature: "is_bond_fund"},
			Priority:         60,
			ConfidenceWeight: 0.9,
			Active:           false,
		},
	}
}

// NewOverrideFixtures returns test overrides: one open-ended and one with a
// bounded effective window.
func NewOverrideFixtures() []*overrides.Override {
	return []*overrides.Override{
		{
			Ticker:        "ARCC",
			AssetClass:    domain.ClassBDC,
			Reason:        strPtr("Known BDC misclassified as common equity by sector data"),
			CreatedBy:     strPtr("ops"),
			EffectiveFrom: 1,
		},
		{
			Ticker:         "TEMP",
			AssetClass:     domain.ClassBondETF,
			Reason:         strPtr("Temporary reclassification during fund restructuring"),
			EffectiveFrom:  1000,
			EffectiveUntil: int64Ptr(2000),
		},
	}
}

// strPtr returns a pointer to the given string value
func strPtr(s string) *string {
	return &s
}

// int64Ptr returns a pointer to the given int64 value
func int64Ptr(i int64) *int64 {
	return &i
}
