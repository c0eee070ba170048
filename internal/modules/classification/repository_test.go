package classification

import (
	"testing"
	"time"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/aristath/assetclass/internal/modules/benchmarks"
	"github.com/aristath/assetclass/internal/modules/rules"
	testhelpers "github.com/aristath/assetclass/internal/testing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredResult(ticker string, classifiedAt time.Time) *Result {
	return &Result{
		ID:          uuid.New().String(),
		Ticker:      ticker,
		AssetClass:  domain.ClassCoveredCallETF,
		ParentClass: domain.ParentETF,
		Confidence:  0.85,
		IsHybrid:    false,
		Characteristics: domain.Characteristics{
			"sector":             "Financial Services",
			"dividend_yield_pct": 9.1,
			"is_etf":             true,
		},
		Benchmarks: benchmarks.Lookup(domain.ClassCoveredCallETF),
		SubScores:  map[string]float64{"yield_vs_benchmark": 0.48, benchmarks.CompositeKey: 0.48},
		TaxEfficiency: TaxProfile{
			IncomeType:          IncomeOptionPremium,
			EstimatedTaxDragPct: 37.0,
			Notes:               "Option premium income is taxed as ordinary income.",
		},
		MatchedRules: []rules.RuleMatch{
			{RuleID: "r1", AssetClass: domain.ClassCoveredCallETF, Weight: 0.85},
		},
		Source:       SourceRuleEngineEnrichment,
		ClassifiedAt: classifiedAt,
		ValidUntil:   classifiedAt.Add(7 * 24 * time.Hour),
	}
}

func newTestStore(t *testing.T) (*Repository, func()) {
	t.Helper()
	db, cleanup := testhelpers.NewTestDB(t, "classification")
	return NewRepository(db.Conn(), zerolog.Nop()), cleanup
}

func TestRepositorySaveAndGetLatestRoundTrip(t *testing.T) {
	repo, cleanup := newTestStore(t)
	defer cleanup()

	classifiedAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	original := newStoredResult("JEPI", classifiedAt)
	require.NoError(t, repo.Save(original))

	got, err := repo.GetLatest("JEPI")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, original.ID, got.ID)
	assert.Equal(t, original.AssetClass, got.AssetClass)
	assert.Equal(t, original.ParentClass, got.ParentClass)
	assert.Equal(t, original.Confidence, got.Confidence)
	assert.Equal(t, original.Source, got.Source)
	assert.Equal(t, original.ClassifiedAt.Unix(), got.ClassifiedAt.Unix())
	assert.Equal(t, original.ValidUntil.Unix(), got.ValidUntil.Unix())

	assert.Equal(t, "Financial Services", got.Characteristics.GetString("sector"))
	yield, ok := got.Characteristics.GetFloat("dividend_yield_pct")
	require.True(t, ok)
	assert.InDelta(t, 9.1, yield, 1e-9)

	require.NotNil(t, got.Benchmarks)
	assert.Equal(t, domain.ClassCoveredCallETF, got.Benchmarks.AssetClass)
	assert.Equal(t, original.SubScores, got.SubScores)
	assert.Equal(t, original.TaxEfficiency, got.TaxEfficiency)
	assert.Equal(t, original.MatchedRules, got.MatchedRules)
}

func TestRepositoryGetLatestMissingReturnsNil(t *testing.T) {
	repo, cleanup := newTestStore(t)
	defer cleanup()

	got, err := repo.GetLatest("NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepositoryLatestRowWins(t *testing.T) {
	repo, cleanup := newTestStore(t)
	defer cleanup()

	older := newStoredResult("JEPI", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := newStoredResult("JEPI", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	newer.AssetClass = domain.ClassDividendETF
	newer.Benchmarks = benchmarks.Lookup(domain.ClassDividendETF)

	require.NoError(t, repo.Save(older))
	require.NoError(t, repo.Save(newer))

	got, err := repo.GetLatest("JEPI")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)
	assert.Equal(t, domain.ClassDividendETF, got.AssetClass)
}

func TestRepositoryNilBenchmarksSurviveRoundTrip(t *testing.T) {
	repo, cleanup := newTestStore(t)
	defer cleanup()

	result := newStoredResult("ZZZZ", time.Now().UTC())
	result.AssetClass = domain.ClassUnknown
	result.Benchmarks = nil

	require.NoError(t, repo.Save(result))

	got, err := repo.GetLatest("ZZZZ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Benchmarks)
}

func TestRepositoryHistoryNewestFirst(t *testing.T) {
	repo, cleanup := newTestStore(t)
	defer cleanup()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(newStoredResult("JEPI", base.AddDate(0, 0, i))))
	}
	require.NoError(t, repo.Save(newStoredResult("OTHER", base)))

	history, err := repo.History("JEPI", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.True(t, !history[i-1].ClassifiedAt.Before(history[i].ClassifiedAt))
	}
	for _, record := range history {
		assert.Equal(t, "JEPI", record.Ticker)
	}
}

func TestRepositoryPruneHistoryKeepsLatestPerTicker(t *testing.T) {
	repo, cleanup := newTestStore(t)
	defer cleanup()

	old := time.Now().Add(-200 * 24 * time.Hour).UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(newStoredResult("STALE", old.Add(time.Duration(i)*time.Hour))))
	}

	deleted, err := repo.PruneHistory(time.Now().Add(-90 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted, "latest row per ticker is always retained")

	got, err := repo.GetLatest("STALE")
	require.NoError(t, err)
	require.NotNil(t, got, "GetLatest must keep working for stale tickers")
}
