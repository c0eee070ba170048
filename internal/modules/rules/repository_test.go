package rules_test

import (
	"testing"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/aristath/assetclass/internal/modules/rules"
	testhelpers "github.com/aristath/assetclass/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*rules.Repository, func()) {
	t.Helper()
	db, cleanup := testhelpers.NewTestDB(t, "classification")
	return rules.NewRepository(db.Conn(), zerolog.Nop()), cleanup
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	rule := &rules.Rule{
		AssetClass:       domain.ClassCoveredCallETF,
		RuleType:         rules.RuleTypeTickerPattern,
		Config:           rules.RuleConfig{Pattern: "^JEPI$"},
		Priority:         10,
		ConfidenceWeight: 0.9,
		Active:           true,
	}
	require.NoError(t, repo.Create(rule))
	assert.NotEmpty(t, rule.ID, "missing ID should be generated")

	got, err := repo.GetByID(rule.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.ClassCoveredCallETF, got.AssetClass)
	assert.Equal(t, rules.RuleTypeTickerPattern, got.RuleType)
	assert.Equal(t, "^JEPI$", got.Config.Pattern)
	assert.Equal(t, 0.9, got.ConfidenceWeight)
	assert.True(t, got.Active)
}

func TestRepository_CreateRejectsInvalidRule(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	tests := []struct {
		name string
		rule rules.Rule
	}{
		{
			name: "zero weight",
			rule: rules.Rule{
				AssetClass:       domain.ClassBDC,
				RuleType:         rules.RuleTypeFeature,
				Config:           rules.RuleConfig{Feature: "is_bdc"},
				ConfidenceWeight: 0,
			},
		},
		{
			name: "weight above one",
			rule: rules.Rule{
				AssetClass:       domain.ClassBDC,
				RuleType:         rules.RuleTypeFeature,
				Config:           rules.RuleConfig{Feature: "is_bdc"},
				ConfidenceWeight: 1.5,
			},
		},
		{
			name: "pattern rule without pattern",
			rule: rules.Rule{
				AssetClass:       domain.ClassBDC,
				RuleType:         rules.RuleTypeTickerPattern,
				ConfidenceWeight: 0.5,
			},
		},
		{
			name: "unknown rule type",
			rule: rules.Rule{
				AssetClass:       domain.ClassBDC,
				RuleType:         "fuzzy",
				ConfidenceWeight: 0.5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(&tt.rule)
			assert.Error(t, err)
		})
	}
}

func TestRepository_GetByIDMissingReturnsNil(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	got, err := repo.GetByID("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_ListActiveOrdersByPriority(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	for _, fixture := range testhelpers.NewRuleFixtures() {
		require.NoError(t, repo.Create(fixture))
	}

	active, err := repo.ListActive()
	require.NoError(t, err)
	require.NotEmpty(t, active)

	for _, rule := range active {
		assert.True(t, rule.Active, "inactive rules must not appear")
	}
	for i := 1; i < len(active); i++ {
		assert.LessOrEqual(t, active[i-1].Priority, active[i].Priority)
	}

	all, err := repo.List()
	require.NoError(t, err)
	assert.Greater(t, len(all), len(active), "List should include inactive rules")
}

func TestRepository_Update(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	rule := &rules.Rule{
		AssetClass:       domain.ClassEquityREIT,
		RuleType:         rules.RuleTypeSector,
		Config:           rules.RuleConfig{Sector: "Real Estate"},
		Priority:         40,
		ConfidenceWeight: 0.6,
		Active:           true,
	}
	require.NoError(t, repo.Create(rule))

	rule.ConfidenceWeight = 0.75
	rule.Priority = 35
	require.NoError(t, repo.Update(rule))

	got, err := repo.GetByID(rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.75, got.ConfidenceWeight)
	assert.Equal(t, 35, got.Priority)
}

func TestRepository_Deactivate(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	rule := &rules.Rule{
		AssetClass:       domain.ClassIndexETF,
		RuleType:         rules.RuleTypeFeature,
		Config:           rules.RuleConfig{Feature: "is_etf"},
		ConfidenceWeight: 0.5,
		Active:           true,
	}
	require.NoError(t, repo.Create(rule))
	require.NoError(t, repo.Deactivate(rule.ID))

	got, err := repo.GetByID(rule.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	active, err := repo.ListActive()
	require.NoError(t, err)
	for _, r := range active {
		assert.NotEqual(t, rule.ID, r.ID)
	}
}
