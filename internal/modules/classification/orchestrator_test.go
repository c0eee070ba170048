package classification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/aristath/assetclass/internal/modules/overrides"
	"github.com/aristath/assetclass/internal/modules/rules"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOverrideSource struct {
	overrides map[string]*overrides.Override
	err       error
}

func (f *fakeOverrideSource) LookupActive(ticker string, now time.Time) (*overrides.Override, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.overrides[ticker], nil
}

type staticRuleSource struct {
	rules []rules.Rule
}

func (s *staticRuleSource) ListActive() ([]rules.Rule, error) {
	return s.rules, nil
}

// countingEnricher records calls and hands back a fixed delta.
type countingEnricher struct {
	delta domain.Characteristics
	calls int
}

func (f *countingEnricher) Fetch(ctx context.Context, ticker string) domain.Characteristics {
	f.calls++
	if f.delta == nil {
		return domain.Characteristics{}
	}
	return f.delta
}

func coveredCallRules() []rules.Rule {
	return []rules.Rule{
		{
			ID:               "ticker-cc",
			AssetClass:       domain.ClassCoveredCallETF,
			RuleType:         rules.RuleTypeTickerPattern,
			Config:           rules.RuleConfig{Pattern: "^(JEPI|JEPQ|QYLD)$"},
			Priority:         10,
			ConfidenceWeight: 0.9,
			Active:           true,
		},
		{
			ID:               "feature-cc",
			AssetClass:       domain.ClassCoveredCallETF,
			RuleType:         rules.RuleTypeFeature,
			Config:           rules.RuleConfig{Feature: "options_strategy_present"},
			Priority:         20,
			ConfidenceWeight: 0.8,
			Active:           true,
		},
	}
}

func newTestOrchestrator(
	overrideSource OverrideSource,
	ruleSet []rules.Rule,
	enricher EnrichmentGateway,
) *Orchestrator {
	engine := rules.NewEngine(&staticRuleSource{rules: ruleSet}, 0, zerolog.Nop())
	return NewOrchestrator(overrideSource, engine, enricher, 0.70, 7*24*time.Hour, zerolog.Nop())
}

func TestClassify_OverrideShortCircuits(t *testing.T) {
	source := &fakeOverrideSource{overrides: map[string]*overrides.Override{
		"ARCC": {Ticker: "ARCC", AssetClass: domain.ClassBDC},
	}}
	enricher := &countingEnricher{}
	orchestrator := newTestOrchestrator(source, coveredCallRules(), enricher)

	result, err := orchestrator.Classify(context.Background(), "arcc", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.ClassBDC, result.AssetClass)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, SourceOverride, result.Source)
	assert.Empty(t, result.MatchedRules)
	assert.False(t, result.IsHybrid)
	assert.Equal(t, 0, enricher.calls, "override must skip enrichment entirely")
}

func TestClassify_ConfidentPassOneSkipsEnrichment(t *testing.T) {
	enricher := &countingEnricher{}
	orchestrator := newTestOrchestrator(&fakeOverrideSource{}, coveredCallRules(), enricher)

	result, err := orchestrator.Classify(context.Background(), "JEPI", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.ClassCoveredCallETF, result.AssetClass)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	assert.Equal(t, SourceRuleEngine, result.Source)
	assert.Equal(t, 0, enricher.calls, "confidence at or above threshold must not enrich")
}

func TestClassify_LowConfidenceTriggersOneEnrichment(t *testing.T) {
	enricher := &countingEnricher{delta: domain.Characteristics{
		"options_strategy_present": true,
		"is_etf":                   true,
		"dividend_yield_pct":       11.2,
	}}
	orchestrator := newTestOrchestrator(&fakeOverrideSource{}, coveredCallRules(), enricher)

	// XYZQ matches no ticker pattern; pass 1 lands at UNKNOWN/0.0,
	// enrichment reveals the covered call strategy, pass 2 classifies it.
	result, err := orchestrator.Classify(context.Background(), "XYZQ", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, enricher.calls, "exactly one enrichment pass")
	assert.Equal(t, domain.ClassCoveredCallETF, result.AssetClass)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.Equal(t, SourceRuleEngineEnrichment, result.Source)
	assert.Equal(t, true, result.Characteristics["options_strategy_present"])
}

func TestClassify_EmptyEnrichmentStillStampsSource(t *testing.T) {
	enricher := &countingEnricher{} // upstream failed, empty delta
	orchestrator := newTestOrchestrator(&fakeOverrideSource{}, coveredCallRules(), enricher)

	result, err := orchestrator.Classify(context.Background(), "XYZQ", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, enricher.calls)
	assert.Equal(t, domain.ClassUnknown, result.AssetClass)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, SourceRuleEngineEnrichment, result.Source,
		"source records that the enrichment path ran, not that it helped")
}

func TestClassify_UnknownIsValidTerminalState(t *testing.T) {
	orchestrator := newTestOrchestrator(&fakeOverrideSource{}, coveredCallRules(), &countingEnricher{})

	result, err := orchestrator.Classify(context.Background(), "ZZZZ", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.ClassUnknown, result.AssetClass)
	assert.Equal(t, domain.ParentUnknown, result.ParentClass)
	assert.Empty(t, result.MatchedRules)
	assert.NotEmpty(t, result.TaxEfficiency.IncomeType, "tax profile present even for UNKNOWN")
}

func TestClassify_CallerCharacteristicsLoseToEnrichment(t *testing.T) {
	enricher := &countingEnricher{delta: domain.Characteristics{"sector": "Real Estate"}}
	orchestrator := newTestOrchestrator(&fakeOverrideSource{}, coveredCallRules(), enricher)

	result, err := orchestrator.Classify(context.Background(), "XYZQ", domain.Characteristics{
		"sector": "Technology",
	})

	require.NoError(t, err)
	assert.Equal(t, "Real Estate", result.Characteristics["sector"],
		"enrichment delta wins on key collision")
}

func TestClassify_InvalidTickerIsRejected(t *testing.T) {
	orchestrator := newTestOrchestrator(&fakeOverrideSource{}, coveredCallRules(), &countingEnricher{})

	for _, ticker := range []string{"", "  ", "WAY_TOO_LONG_TICKER", "BAD TICKER", "A$B"} {
		_, err := orchestrator.Classify(context.Background(), ticker, nil)
		assert.Error(t, err, "ticker %q", ticker)
	}
}

func TestClassify_TickerIsNormalized(t *testing.T) {
	orchestrator := newTestOrchestrator(&fakeOverrideSource{}, coveredCallRules(), &countingEnricher{})

	result, err := orchestrator.Classify(context.Background(), "  jepi ", nil)

	require.NoError(t, err)
	assert.Equal(t, "JEPI", result.Ticker)
}

func TestClassify_OverrideLookupErrorFailsHard(t *testing.T) {
	source := &fakeOverrideSource{err: errors.New("db closed")}
	orchestrator := newTestOrchestrator(source, coveredCallRules(), &countingEnricher{})

	_, err := orchestrator.Classify(context.Background(), "JEPI", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "override lookup")
}

func TestClassify_StampsCacheHorizon(t *testing.T) {
	orchestrator := newTestOrchestrator(&fakeOverrideSource{}, coveredCallRules(), &countingEnricher{})
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orchestrator.SetClock(func() time.Time { return fixed })

	result, err := orchestrator.Classify(context.Background(), "JEPI", nil)

	require.NoError(t, err)
	assert.Equal(t, fixed, result.ClassifiedAt)
	assert.Equal(t, fixed.Add(7*24*time.Hour), result.ValidUntil)
	assert.True(t, result.FreshAt(fixed.Add(time.Hour)))
	assert.False(t, result.FreshAt(fixed.Add(8*24*time.Hour)))
}

func TestClassify_AttachesBenchmarksAndSubScores(t *testing.T) {
	enricher := &countingEnricher{delta: domain.Characteristics{
		"options_strategy_present": true,
		"dividend_yield_pct":       9.5,
	}}
	orchestrator := newTestOrchestrator(&fakeOverrideSource{}, coveredCallRules(), enricher)

	result, err := orchestrator.Classify(context.Background(), "XYZQ", nil)

	require.NoError(t, err)
	require.NotNil(t, result.Benchmarks)
	assert.Equal(t, domain.ClassCoveredCallETF, result.Benchmarks.AssetClass)
	assert.Contains(t, result.SubScores, "yield_vs_benchmark")
	assert.Equal(t, IncomeOptionPremium, result.TaxEfficiency.IncomeType)
	assert.Equal(t, domain.ParentETF, result.ParentClass)
}

func TestClassify_IsIdempotentForSameInputs(t *testing.T) {
	orchestrator := newTestOrchestrator(&fakeOverrideSource{}, coveredCallRules(), &countingEnricher{})
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orchestrator.SetClock(func() time.Time { return fixed })

	first, err := orchestrator.Classify(context.Background(), "JEPI", nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		result, err := orchestrator.Classify(context.Background(), "JEPI", nil)
		require.NoError(t, err)
		assert.Equal(t, first.AssetClass, result.AssetClass)
		assert.Equal(t, first.Confidence, result.Confidence)
		assert.Equal(t, first.Source, result.Source)
		assert.Equal(t, first.MatchedRules, result.MatchedRules)
	}
}
