package marketdata

import (
	"strconv"
	"strings"
)

// Fundamentals holds company overview data used as classification evidence.
// The provider returns a flat field map with string-encoded numbers; absent
// or "None" fields parse to nil.
type Fundamentals struct {
	AssetType         string   `json:"asset_type"`
	Sector            string   `json:"sector"`
	Industry          string   `json:"industry"`
	PERatio           *float64 `json:"pe_ratio"`
	DividendYieldPct  *float64 `json:"dividend_yield_pct"`
	PayoutRatioPct    *float64 `json:"payout_ratio_pct"`
	DebtToEquity      *float64 `json:"debt_to_equity"`
	MarketCapMillions *float64 `json:"market_cap_millions"`
}

// ETFProfile holds ETF metadata used as classification evidence.
type ETFProfile struct {
	CoveredCall     bool     `json:"covered_call"`
	AUM             *float64 `json:"aum"`
	NetExpenseRatio *float64 `json:"net_expense_ratio"`
	DividendYield   *float64 `json:"dividend_yield"`
	LeverageFactor  *float64 `json:"leverage_factor"`
	AssetAllocation string   `json:"asset_allocation"`
}

// parseFloat64Ptr parses a provider string value into a float pointer.
// Empty strings, "None" and "-" all mean absent, not zero.
func parseFloat64Ptr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseBool parses a provider string flag. Recognizes "true"/"1"/"yes".
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
