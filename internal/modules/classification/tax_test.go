package classification

import (
	"testing"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildTaxProfile_ClassDefaults(t *testing.T) {
	tests := []struct {
		assetClass string
		incomeType IncomeType
		dragPct    float64
	}{
		{domain.ClassCoveredCallETF, IncomeOptionPremium, 37.0},
		{domain.ClassDividendGrowth, IncomeQualifiedDividend, 15.0},
		{domain.ClassBondETF, IncomeInterest, 37.0},
		{domain.ClassEquityREIT, IncomeREITDistribution, 29.6},
		{domain.ClassMLP, IncomeReturnOfCapital, 0.0},
		{domain.ClassPreferredStock, IncomeFixedDividend, 15.0},
	}

	for _, tt := range tests {
		t.Run(tt.assetClass, func(t *testing.T) {
			profile := BuildTaxProfile(tt.assetClass, nil)

			assert.Equal(t, tt.incomeType, profile.IncomeType)
			assert.Equal(t, tt.dragPct, profile.EstimatedTaxDragPct)
			assert.NotEmpty(t, profile.Notes)
		})
	}
}

func TestBuildTaxProfile_CharacteristicsOverrideClassDefault(t *testing.T) {
	profile := BuildTaxProfile(domain.ClassEquityREIT, domain.Characteristics{
		"income_type": "interest",
	})

	assert.Equal(t, IncomeInterest, profile.IncomeType)
	assert.Equal(t, 37.0, profile.EstimatedTaxDragPct)
}

func TestBuildTaxProfile_UnrecognizedIncomeTypeAssumesOrdinaryRate(t *testing.T) {
	// A supplied but unrecognized income_type is suspect evidence: assume
	// ordinary income even when the class would default lower.
	profile := BuildTaxProfile(domain.ClassDividendETF, domain.Characteristics{
		"income_type": "lottery_winnings",
	})
	assert.Equal(t, IncomeUnknown, profile.IncomeType)
	assert.Equal(t, 37.0, profile.EstimatedTaxDragPct)

	// Class inference applies only when income_type is absent entirely.
	profile = BuildTaxProfile(domain.ClassDividendETF, nil)
	assert.Equal(t, IncomeQualifiedDividend, profile.IncomeType)
	assert.Equal(t, 15.0, profile.EstimatedTaxDragPct)
}

func TestBuildTaxProfile_AlwaysPresent(t *testing.T) {
	for _, assetClass := range append(domain.KnownAssetClasses(), domain.ClassUnknown, "MADE_UP") {
		profile := BuildTaxProfile(assetClass, nil)

		assert.NotEmpty(t, profile.IncomeType, assetClass)
		assert.NotEmpty(t, profile.Notes, assetClass)
		assert.GreaterOrEqual(t, profile.EstimatedTaxDragPct, 0.0, assetClass)
	}
}

func TestBuildTaxProfile_UnknownClassGetsGenericNote(t *testing.T) {
	profile := BuildTaxProfile(domain.ClassUnknown, nil)

	assert.Equal(t, IncomeUnknown, profile.IncomeType)
	assert.Contains(t, profile.Notes, "unverified")
}
