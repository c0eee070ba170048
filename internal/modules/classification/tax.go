package classification

import "github.com/aristath/assetclass/internal/domain"

// IncomeType is the income character of a security's distributions.
type IncomeType string

const (
	IncomeQualifiedDividend IncomeType = "qualified_dividend"
	IncomeOptionPremium     IncomeType = "option_premium"
	IncomeInterest          IncomeType = "interest"
	IncomeREITDistribution  IncomeType = "reit_distribution"
	IncomeOrdinaryDividend  IncomeType = "ordinary_dividend"
	IncomeFixedDividend     IncomeType = "fixed_dividend"
	IncomeReturnOfCapital   IncomeType = "roc"
	IncomeUnknown           IncomeType = "unknown"
)

// ordinaryIncomeDragPct is the conservative default applied to unrecognized
// income types: assume top-bracket ordinary income treatment.
const ordinaryIncomeDragPct = 37.0

// taxDragTable maps income types to estimated federal tax drag percentages.
var taxDragTable = map[IncomeType]float64{
	IncomeQualifiedDividend: 15.0,
	IncomeOptionPremium:     37.0,
	IncomeInterest:          37.0,
	IncomeREITDistribution:  29.6, // Ordinary rate after the 20% pass-through deduction
	IncomeOrdinaryDividend:  37.0,
	IncomeFixedDividend:     15.0,
	IncomeReturnOfCapital:   0.0, // Deferred; reduces cost basis instead
	IncomeUnknown:           ordinaryIncomeDragPct,
}

// classIncomeDefaults maps asset classes to their typical income character,
// used when the caller supplies no income_type evidence.
var classIncomeDefaults = map[string]IncomeType{
	domain.ClassCoveredCallETF:  IncomeOptionPremium,
	domain.ClassDividendETF:     IncomeQualifiedDividend,
	domain.ClassBondETF:         IncomeInterest,
	domain.ClassIndexETF:        IncomeQualifiedDividend,
	domain.ClassEquityREIT:      IncomeREITDistribution,
	domain.ClassMortgageREIT:    IncomeREITDistribution,
	domain.ClassBDC:             IncomeOrdinaryDividend,
	domain.ClassMLP:             IncomeReturnOfCapital,
	domain.ClassCEF:             IncomeOrdinaryDividend,
	domain.ClassPreferredStock:  IncomeFixedDividend,
	domain.ClassDividendGrowth:  IncomeQualifiedDividend,
	domain.ClassHighYieldEquity: IncomeQualifiedDividend,
	domain.ClassBond:            IncomeInterest,
}

// taxNotes holds the per-class narrative for tax guidance.
var taxNotes = map[string]string{
	domain.ClassCoveredCallETF:  "Option premium income is taxed as ordinary income. Covered call funds are significantly more tax-efficient inside retirement accounts.",
	domain.ClassDividendETF:     "Distributions are mostly qualified dividends taxed at capital gains rates. Reasonably tax-efficient in taxable accounts.",
	domain.ClassBondETF:         "Interest distributions are taxed as ordinary income. Consider municipal bond funds in taxable accounts.",
	domain.ClassIndexETF:        "Low turnover and qualified dividends make broad index funds among the most tax-efficient holdings.",
	domain.ClassEquityREIT:      "REIT distributions are mostly non-qualified but benefit from the 20% pass-through deduction. Best held in tax-advantaged accounts.",
	domain.ClassMortgageREIT:    "High distributions taxed as ordinary income with the pass-through deduction. Tax drag is substantial in taxable accounts.",
	domain.ClassBDC:             "BDC distributions are largely non-qualified ordinary income. Strongly prefer tax-advantaged accounts.",
	domain.ClassMLP:             "Distributions are mostly return of capital with deferred taxation, but K-1 reporting applies and UBTI can be a concern in IRAs.",
	domain.ClassCEF:             "Distribution character varies between income, gains, and return of capital; review the fund's 19(a) notices.",
	domain.ClassPreferredStock:  "Most preferred dividends are qualified when holding periods are met, taxed at capital gains rates.",
	domain.ClassDividendGrowth:  "Qualified dividends at capital gains rates with low payout ratios. Suitable for taxable accounts.",
	domain.ClassHighYieldEquity: "Dividends are generally qualified, but the larger income stream raises absolute tax cost in taxable accounts.",
	domain.ClassBond:            "Coupon interest is taxed as ordinary income at the federal level.",
}

const genericTaxNote = "Income character unverified; assumes ordinary income treatment. Confirm distribution character before tax planning."

// BuildTaxProfile derives a tax-efficiency profile from income-type
// characteristics. It always produces a profile, independent of
// classification confidence or override status. An absent income_type is
// inferred from the asset class; a supplied but unrecognized one is treated
// as unknown at the conservative ordinary-income rate, never inferred.
func BuildTaxProfile(assetClass string, characteristics domain.Characteristics) TaxProfile {
	raw := characteristics.GetString("income_type")
	incomeType := IncomeType(raw)
	if _, known := taxDragTable[incomeType]; !known {
		if raw != "" {
			incomeType = IncomeUnknown
		} else if fallback, ok := classIncomeDefaults[assetClass]; ok {
			incomeType = fallback
		} else {
			incomeType = IncomeUnknown
		}
	}

	drag, ok := taxDragTable[incomeType]
	if !ok {
		drag = ordinaryIncomeDragPct
	}

	notes, ok := taxNotes[assetClass]
	if !ok {
		notes = genericTaxNote
	}

	return TaxProfile{
		IncomeType:          incomeType,
		EstimatedTaxDragPct: drag,
		Notes:               notes,
	}
}
