// Package marketdata provides a client for the upstream market data provider.
// It exposes the two endpoints the classification engine needs: company
// fundamentals and ETF metadata. Responses are cached persistently so repeat
// classifications of the same ticker don't hit the provider again.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/assetclass/internal/clientdata"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// Client is the market data provider client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
	cacheRepo  *clientdata.Repository
}

// NewClient creates a new market data client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL, apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log:       log.With().Str("component", "marketdata").Logger(),
		cacheRepo: cacheRepo,
	}
}

// GetFundamentals fetches company overview data for a ticker.
// Returns nil, nil when the provider has no data for the symbol.
// If the API fails, returns stale cached data if available.
func (c *Client) GetFundamentals(ctx context.Context, ticker string) (*Fundamentals, error) {
	if f, ok := getFromCache[Fundamentals](c, "fundamentals", ticker); ok {
		c.log.Debug().Str("ticker", ticker).Msg("Fundamentals cache hit")
		return f, nil
	}

	raw, err := c.doRequest(ctx, "OVERVIEW", ticker)
	if err != nil {
		if stale, ok := getStaleFromCache[Fundamentals](c, "fundamentals", ticker); ok {
			c.log.Warn().Err(err).Str("ticker", ticker).Msg("API failed, using stale cached fundamentals")
			return stale, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	f := parseFundamentals(raw)
	c.setCache("fundamentals", ticker, f, clientdata.TTLFundamentals)

	return f, nil
}

// GetETFProfile fetches ETF metadata for a ticker.
// Returns nil, nil when the symbol is not an ETF or the provider has no data.
// If the API fails, returns stale cached data if available.
func (c *Client) GetETFProfile(ctx context.Context, ticker string) (*ETFProfile, error) {
	if p, ok := getFromCache[ETFProfile](c, "etf_profile", ticker); ok {
		c.log.Debug().Str("ticker", ticker).Msg("ETF profile cache hit")
		return p, nil
	}

	raw, err := c.doRequest(ctx, "ETF_PROFILE", ticker)
	if err != nil {
		if stale, ok := getStaleFromCache[ETFProfile](c, "etf_profile", ticker); ok {
			c.log.Warn().Err(err).Str("ticker", ticker).Msg("API failed, using stale cached ETF profile")
			return stale, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	p := parseETFProfile(raw)
	c.setCache("etf_profile", ticker, p, clientdata.TTLETFProfile)

	return p, nil
}

// doRequest performs the HTTP request to the provider.
// The provider returns a flat string-keyed field map, or an empty object when
// it has no data for the symbol.
func (c *Client) doRequest(ctx context.Context, function, ticker string) (map[string]string, error) {
	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", ticker)
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.log.Debug().Str("function", function).Str("ticker", ticker).Msg("Making market data request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("market data API error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var fields map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return fields, nil
}

func parseFundamentals(fields map[string]string) *Fundamentals {
	return &Fundamentals{
		AssetType:         fields["AssetType"],
		Sector:            fields["Sector"],
		Industry:          fields["Industry"],
		PERatio:           parseFloat64Ptr(fields["PERatio"]),
		DividendYieldPct:  parseFloat64Ptr(fields["DividendYield"]),
		PayoutRatioPct:    parseFloat64Ptr(fields["PayoutRatio"]),
		DebtToEquity:      parseFloat64Ptr(fields["DebtToEquity"]),
		MarketCapMillions: parseFloat64Ptr(fields["MarketCapitalizationMln"]),
	}
}

func parseETFProfile(fields map[string]string) *ETFProfile {
	return &ETFProfile{
		CoveredCall:     parseBool(fields["covered_call"]),
		AUM:             parseFloat64Ptr(fields["aum"]),
		NetExpenseRatio: parseFloat64Ptr(fields["net_expense_ratio"]),
		DividendYield:   parseFloat64Ptr(fields["dividend_yield"]),
		LeverageFactor:  parseFloat64Ptr(fields["leverage_factor"]),
		AssetAllocation: fields["asset_allocation"],
	}
}

// getFromCache retrieves cached results if they exist and haven't expired.
func getFromCache[T any](c *Client, table, ticker string) (*T, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.GetIfFresh(table, ticker)
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to get from cache")
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to unmarshal cached data")
		return nil, false
	}

	return &v, true
}

// getStaleFromCache retrieves cached results even if expired.
// Use this as a fallback when API calls fail - stale data is better than no data.
func getStaleFromCache[T any](c *Client, table, ticker string) (*T, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.Get(table, ticker)
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to get stale data from cache")
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to unmarshal stale cached data")
		return nil, false
	}

	return &v, true
}

// setCache stores results in the persistent cache.
func (c *Client) setCache(table, ticker string, data interface{}, ttl time.Duration) {
	if c.cacheRepo == nil {
		return
	}

	if err := c.cacheRepo.Store(table, ticker, data, ttl); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache market data")
	}
}

// SetHTTPClient replaces the underlying HTTP client. Used in tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}
