// Package domain contains pure domain types shared across modules.
// Nothing in this package depends on infrastructure.
package domain

// Asset class labels. These are the terminal taxonomy nodes a security can
// be classified into.
const (
	ClassCoveredCallETF  = "COVERED_CALL_ETF"
	ClassDividendETF     = "DIVIDEND_ETF"
	ClassBondETF         = "BOND_ETF"
	ClassIndexETF        = "INDEX_ETF"
	ClassEquityREIT      = "EQUITY_REIT"
	ClassMortgageREIT    = "MORTGAGE_REIT"
	ClassBDC             = "BDC"
	ClassMLP             = "MLP"
	ClassCEF             = "CEF"
	ClassPreferredStock  = "PREFERRED_STOCK"
	ClassDividendGrowth  = "DIVIDEND_GROWTH"
	ClassHighYieldEquity = "HIGH_YIELD_EQUITY"
	ClassBond            = "BOND"
	ClassUnknown         = "UNKNOWN"
)

// Parent class buckets grouping related asset classes.
const (
	ParentETF     = "ETF"
	ParentREIT    = "REIT"
	ParentEquity  = "EQUITY"
	ParentCredit  = "CREDIT"
	ParentFund    = "FUND"
	ParentUnknown = "UNKNOWN"
)

// parentTaxonomy maps each asset class to its broader taxonomy bucket.
// Parent class derivation is a fixed lookup, never a rule evaluation output.
var parentTaxonomy = map[string]string{
	ClassCoveredCallETF:  ParentETF,
	ClassDividendETF:     ParentETF,
	ClassBondETF:         ParentETF,
	ClassIndexETF:        ParentETF,
	ClassEquityREIT:      ParentREIT,
	ClassMortgageREIT:    ParentREIT,
	ClassBDC:             ParentCredit,
	ClassMLP:             ParentEquity,
	ClassCEF:             ParentFund,
	ClassPreferredStock:  ParentEquity,
	ClassDividendGrowth:  ParentEquity,
	ClassHighYieldEquity: ParentEquity,
	ClassBond:            ParentCredit,
}

// ParentClass returns the taxonomy bucket for an asset class.
// Unknown or unmapped classes return ParentUnknown.
func ParentClass(assetClass string) string {
	if parent, ok := parentTaxonomy[assetClass]; ok {
		return parent
	}
	return ParentUnknown
}

// KnownAssetClasses returns all asset classes in the taxonomy.
func KnownAssetClasses() []string {
	classes := make([]string, 0, len(parentTaxonomy))
	for class := range parentTaxonomy {
		classes = append(classes, class)
	}
	return classes
}

// IsKnownAssetClass reports whether the label is part of the taxonomy.
func IsKnownAssetClass(assetClass string) bool {
	_, ok := parentTaxonomy[assetClass]
	return ok
}
