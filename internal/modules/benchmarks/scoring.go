package benchmarks

import (
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/assetclass/internal/domain"
)

// CompositeKey is the sub-score entry holding the weighted blend of all
// per-metric scores.
const CompositeKey = "composite"

// metricSpec describes how one benchmark metric is scored.
// direction +1 means above-benchmark is favorable (yield); -1 means
// below-benchmark is favorable (expense ratio, leverage).
type metricSpec struct {
	name      string
	charKey   string
	benchmark func(*Profile) *float64
	direction float64
	weight    float64
}

// metricSpecs drives Score. Weights favor the income metrics since the
// downstream scorer is income-oriented.
var metricSpecs = []metricSpec{
	{
		name:      "yield_vs_benchmark",
		charKey:   "dividend_yield_pct",
		benchmark: func(p *Profile) *float64 { return p.YieldBenchmarkPct },
		direction: 1,
		weight:    0.35,
	},
	{
		name:      "expense_ratio_vs_benchmark",
		charKey:   "net_expense_ratio",
		benchmark: func(p *Profile) *float64 { return p.ExpenseRatioBenchmark },
		direction: -1,
		weight:    0.15,
	},
	{
		name:      "pe_vs_benchmark",
		charKey:   "pe_ratio",
		benchmark: func(p *Profile) *float64 { return p.PEBenchmark },
		direction: -1,
		weight:    0.20,
	},
	{
		name:      "debt_equity_vs_benchmark",
		charKey:   "debt_to_equity",
		benchmark: func(p *Profile) *float64 { return p.DebtEquityBenchmark },
		direction: -1,
		weight:    0.15,
	},
	{
		name:      "payout_ratio_vs_benchmark",
		charKey:   "payout_ratio_pct",
		benchmark: func(p *Profile) *float64 { return p.PayoutRatioBenchmarkPct },
		direction: -1,
		weight:    0.15,
	},
}

// Score computes class-relative sub-scores for a security.
//
// Each metric scores the relative deviation of the observed value from the
// class benchmark, mapped onto [0,1] where 0.5 means "at benchmark" and the
// favorable direction pushes toward 1. Metrics whose benchmark is unset for
// the class are omitted entirely rather than defaulted: "not applicable" and
// "zero deviation" mean different things. A class without a benchmark
// profile yields an empty set - that is not an error.
func Score(assetClass string, characteristics domain.Characteristics) map[string]float64 {
	subScores := make(map[string]float64)

	profile := Lookup(assetClass)
	if profile == nil {
		return subScores
	}

	var values, weights []float64
	for _, spec := range metricSpecs {
		benchmark := spec.benchmark(profile)
		if benchmark == nil || *benchmark == 0 {
			continue
		}

		observed, ok := characteristics.GetFloat(spec.charKey)
		if !ok {
			continue
		}

		relDeviation := (observed - *benchmark) / *benchmark
		score := normalizeDeviation(spec.direction * relDeviation)

		subScores[spec.name] = score
		values = append(values, score)
		weights = append(weights, spec.weight)
	}

	if len(values) > 0 {
		subScores[CompositeKey] = stat.Mean(values, weights)
	}

	return subScores
}

// normalizeDeviation maps a signed relative deviation onto [0,1].
// The deviation is clamped at +/-100% so one extreme metric can't dominate.
func normalizeDeviation(d float64) float64 {
	if d > 1 {
		d = 1
	}
	if d < -1 {
		d = -1
	}
	return 0.5 + d/2
}
