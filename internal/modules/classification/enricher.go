package classification

import (
	"context"
	"time"

	"github.com/aristath/assetclass/internal/clients/marketdata"
	"github.com/aristath/assetclass/internal/domain"
	"github.com/rs/zerolog"
)

// MarketDataClient is the slice of the market data provider the enricher
// needs: a fundamentals endpoint and an ETF metadata endpoint, either of
// which may have no data for a symbol.
type MarketDataClient interface {
	GetFundamentals(ctx context.Context, ticker string) (*marketdata.Fundamentals, error)
	GetETFProfile(ctx context.Context, ticker string) (*marketdata.ETFProfile, error)
}

// Enricher fetches supplemental security data to boost low-confidence
// classifications. It is the sole network-calling component in the engine.
type Enricher struct {
	client  MarketDataClient
	timeout time.Duration
	log     zerolog.Logger
}

// NewEnricher creates a new enricher. timeout bounds one Fetch call end to end.
func NewEnricher(client MarketDataClient, timeout time.Duration, log zerolog.Logger) *Enricher {
	return &Enricher{
		client:  client,
		timeout: timeout,
		log:     log.With().Str("component", "enricher").Logger(),
	}
}

// Fetch returns a characteristics delta for the ticker, possibly empty.
//
// Enrichment is a best-effort confidence booster, never a hard dependency:
// any upstream failure (timeout, non-success response, malformed payload)
// collapses to an empty delta rather than an error. That collapse is a
// deliberate contract, not missing error handling - the cascade must degrade
// gracefully when the provider is down.
func (e *Enricher) Fetch(ctx context.Context, ticker string) domain.Characteristics {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	delta := make(domain.Characteristics)

	fundamentals, err := e.client.GetFundamentals(ctx, ticker)
	if err != nil {
		e.log.Warn().Err(err).Str("ticker", ticker).Msg("Fundamentals enrichment failed")
	} else if fundamentals != nil {
		mergeFundamentals(delta, fundamentals)
	}

	etf, err := e.client.GetETFProfile(ctx, ticker)
	if err != nil {
		e.log.Warn().Err(err).Str("ticker", ticker).Msg("ETF profile enrichment failed")
	} else if etf != nil {
		mergeETFProfile(delta, etf)
	}

	if len(delta) > 0 {
		e.log.Debug().
			Str("ticker", ticker).
			Int("fields", len(delta)).
			Msg("Enrichment delta fetched")
	}

	return delta
}

func mergeFundamentals(delta domain.Characteristics, f *marketdata.Fundamentals) {
	if f.AssetType != "" {
		delta["asset_type"] = f.AssetType
	}
	if f.Sector != "" {
		delta["sector"] = f.Sector
	}
	if f.Industry != "" {
		delta["industry"] = f.Industry
	}
	if f.PERatio != nil {
		delta["pe_ratio"] = *f.PERatio
	}
	if f.DividendYieldPct != nil {
		delta["dividend_yield_pct"] = *f.DividendYieldPct
	}
	if f.PayoutRatioPct != nil {
		delta["payout_ratio_pct"] = *f.PayoutRatioPct
	}
	if f.DebtToEquity != nil {
		delta["debt_to_equity"] = *f.DebtToEquity
	}
	if f.MarketCapMillions != nil {
		delta["market_cap_millions"] = *f.MarketCapMillions
	}
}

func mergeETFProfile(delta domain.Characteristics, p *marketdata.ETFProfile) {
	// A covered_call flag on ETF data implies both the strategy and that the
	// security is an ETF at all.
	if p.CoveredCall {
		delta["options_strategy_present"] = true
		delta["is_etf"] = true
	}
	if p.AUM != nil {
		delta["aum_millions"] = *p.AUM
	}
	if p.NetExpenseRatio != nil {
		delta["net_expense_ratio"] = *p.NetExpenseRatio
	}
	if p.DividendYield != nil {
		delta["dividend_yield_pct"] = *p.DividendYield
	}
	if p.LeverageFactor != nil {
		delta["leverage_factor"] = *p.LeverageFactor
	}
	if p.AssetAllocation != "" {
		delta["asset_allocation"] = p.AssetAllocation
	}
}
