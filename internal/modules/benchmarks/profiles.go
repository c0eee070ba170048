// Package benchmarks holds the static per-asset-class benchmark table and
// computes class-relative sub-scores. Reference data only; nothing here is
// user-mutable through the classification path.
package benchmarks

import "github.com/aristath/assetclass/internal/domain"

// NAV stability bands describe how tightly a class's net asset value tracks
// its underlying holdings.
const (
	NAVStabilityHigh     = "high"
	NAVStabilityModerate = "moderate"
	NAVStabilityLow      = "low"
)

// Profile is the benchmark reference data for one asset class.
// Metric scalars are pointers: a nil benchmark means "not meaningful for
// this class", which is different from a benchmark of zero.
type Profile struct {
	AssetClass              string   `json:"asset_class"`
	PeerGroup               []string `json:"peer_group"`
	YieldBenchmarkPct       *float64 `json:"yield_benchmark_pct,omitempty"`
	ExpenseRatioBenchmark   *float64 `json:"expense_ratio_benchmark,omitempty"`
	PEBenchmark             *float64 `json:"pe_benchmark,omitempty"`
	DebtEquityBenchmark     *float64 `json:"debt_equity_benchmark,omitempty"`
	PayoutRatioBenchmarkPct *float64 `json:"payout_ratio_benchmark_pct,omitempty"`
	NAVStability            string   `json:"nav_stability"`
}

func f(v float64) *float64 { return &v }

// profiles is the static benchmark table. Classes without an entry simply
// produce no sub-scores.
var profiles = map[string]Profile{
	domain.ClassCoveredCallETF: {
		AssetClass:            domain.ClassCoveredCallETF,
		PeerGroup:             []string{"JEPI", "JEPQ", "QYLD", "XYLD", "DIVO"},
		YieldBenchmarkPct:     f(9.5),
		ExpenseRatioBenchmark: f(0.60),
		NAVStability:          NAVStabilityModerate,
	},
	domain.ClassDividendETF: {
		AssetClass:            domain.ClassDividendETF,
		PeerGroup:             []string{"SCHD", "VYM", "HDV", "DGRO", "SPYD"},
		YieldBenchmarkPct:     f(3.5),
		ExpenseRatioBenchmark: f(0.10),
		NAVStability:          NAVStabilityHigh,
	},
	domain.ClassBondETF: {
		AssetClass:            domain.ClassBondETF,
		PeerGroup:             []string{"BND", "AGG", "TLT", "LQD", "HYG"},
		YieldBenchmarkPct:     f(4.0),
		ExpenseRatioBenchmark: f(0.05),
		NAVStability:          NAVStabilityHigh,
	},
	domain.ClassIndexETF: {
		AssetClass:            domain.ClassIndexETF,
		PeerGroup:             []string{"SPY", "VOO", "IVV", "QQQ", "VTI"},
		YieldBenchmarkPct:     f(1.4),
		ExpenseRatioBenchmark: f(0.09),
		NAVStability:          NAVStabilityHigh,
	},
	domain.ClassEquityREIT: {
		AssetClass:              domain.ClassEquityREIT,
		PeerGroup:               []string{"O", "VICI", "PLD", "SPG", "WPC"},
		YieldBenchmarkPct:       f(4.5),
		DebtEquityBenchmark:     f(1.2),
		PayoutRatioBenchmarkPct: f(75.0),
		NAVStability:            NAVStabilityModerate,
	},
	domain.ClassMortgageREIT: {
		AssetClass:              domain.ClassMortgageREIT,
		PeerGroup:               []string{"NLY", "AGNC", "STWD", "RITM"},
		YieldBenchmarkPct:       f(12.0),
		DebtEquityBenchmark:     f(4.0),
		PayoutRatioBenchmarkPct: f(95.0),
		NAVStability:            NAVStabilityLow,
	},
	domain.ClassBDC: {
		AssetClass:          domain.ClassBDC,
		PeerGroup:           []string{"ARCC", "MAIN", "OBDC", "FSK", "HTGC"},
		YieldBenchmarkPct:   f(9.5),
		DebtEquityBenchmark: f(1.1),
		NAVStability:        NAVStabilityModerate,
	},
	domain.ClassMLP: {
		AssetClass:          domain.ClassMLP,
		PeerGroup:           []string{"EPD", "ET", "MPLX", "WES"},
		YieldBenchmarkPct:   f(7.5),
		DebtEquityBenchmark: f(1.0),
		NAVStability:        NAVStabilityModerate,
	},
	domain.ClassCEF: {
		AssetClass:            domain.ClassCEF,
		PeerGroup:             []string{"PDI", "UTF", "UTG", "BST"},
		YieldBenchmarkPct:     f(8.0),
		ExpenseRatioBenchmark: f(1.50),
		NAVStability:          NAVStabilityLow,
	},
	domain.ClassPreferredStock: {
		AssetClass:        domain.ClassPreferredStock,
		PeerGroup:         []string{"PFF", "PGX", "PFFD"},
		YieldBenchmarkPct: f(6.0),
		NAVStability:      NAVStabilityHigh,
	},
	domain.ClassDividendGrowth: {
		AssetClass:              domain.ClassDividendGrowth,
		PeerGroup:               []string{"JNJ", "PG", "KO", "PEP", "ABBV"},
		YieldBenchmarkPct:       f(2.8),
		PEBenchmark:             f(22.0),
		PayoutRatioBenchmarkPct: f(55.0),
		NAVStability:            NAVStabilityHigh,
	},
	domain.ClassHighYieldEquity: {
		AssetClass:              domain.ClassHighYieldEquity,
		PeerGroup:               []string{"MO", "T", "VZ", "BTI"},
		YieldBenchmarkPct:       f(7.0),
		PEBenchmark:             f(10.0),
		PayoutRatioBenchmarkPct: f(80.0),
		NAVStability:            NAVStabilityModerate,
	},
}

// Lookup returns the benchmark profile for an asset class.
// Returns nil when no benchmark is defined for the class - not an error.
func Lookup(assetClass string) *Profile {
	if p, ok := profiles[assetClass]; ok {
		return &p
	}
	return nil
}
