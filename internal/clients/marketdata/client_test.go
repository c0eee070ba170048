package marketdata_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/assetclass/internal/clientdata"
	"github.com/aristath/assetclass/internal/clients/marketdata"
	testhelpers "github.com/aristath/assetclass/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderStub(t *testing.T, responses map[string]map[string]string, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		fields, ok := responses[r.URL.Query().Get("function")]
		if !ok {
			fields = map[string]string{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fields)
	}))
}

func TestGetFundamentalsParsesProviderFields(t *testing.T) {
	server := newProviderStub(t, map[string]map[string]string{
		"OVERVIEW": {
			"AssetType":               "Common Stock",
			"Sector":                  "Technology",
			"Industry":                "Consumer Electronics",
			"PERatio":                 "28.5",
			"DividendYield":           "0.55",
			"PayoutRatio":             "15.2",
			"DebtToEquity":            "1.8",
			"MarketCapitalizationMln": "2900000",
		},
	}, nil)
	defer server.Close()

	client := marketdata.NewClient(server.URL, "test-key", nil, zerolog.Nop())

	f, err := client.GetFundamentals(context.Background(), "AAPL")

	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "Common Stock", f.AssetType)
	assert.Equal(t, "Technology", f.Sector)
	require.NotNil(t, f.PERatio)
	assert.InDelta(t, 28.5, *f.PERatio, 0.001)
	require.NotNil(t, f.DividendYieldPct)
	assert.InDelta(t, 0.55, *f.DividendYieldPct, 0.001)
}

func TestGetFundamentalsOmitsUnparsableNumbers(t *testing.T) {
	server := newProviderStub(t, map[string]map[string]string{
		"OVERVIEW": {
			"Sector":  "Energy",
			"PERatio": "None",
		},
	}, nil)
	defer server.Close()

	client := marketdata.NewClient(server.URL, "", nil, zerolog.Nop())

	f, err := client.GetFundamentals(context.Background(), "XOM")

	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Nil(t, f.PERatio)
	assert.Equal(t, "Energy", f.Sector)
}

func TestGetFundamentalsReturnsNilForUnknownSymbol(t *testing.T) {
	server := newProviderStub(t, nil, nil)
	defer server.Close()

	client := marketdata.NewClient(server.URL, "", nil, zerolog.Nop())

	f, err := client.GetFundamentals(context.Background(), "NOSUCH")

	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestGetETFProfileParsesProviderFields(t *testing.T) {
	server := newProviderStub(t, map[string]map[string]string{
		"ETF_PROFILE": {
			"covered_call":      "true",
			"aum":               "35000",
			"net_expense_ratio": "0.35",
			"dividend_yield":    "9.8",
			"asset_allocation":  "equity",
		},
	}, nil)
	defer server.Close()

	client := marketdata.NewClient(server.URL, "", nil, zerolog.Nop())

	p, err := client.GetETFProfile(context.Background(), "JEPI")

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.CoveredCall)
	require.NotNil(t, p.NetExpenseRatio)
	assert.InDelta(t, 0.35, *p.NetExpenseRatio, 0.001)
	assert.Equal(t, "equity", p.AssetAllocation)
}

func TestGetFundamentalsServesCacheWithoutSecondRequest(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "client_data")
	defer cleanup()
	cacheRepo := clientdata.NewRepository(db.Conn())

	var calls atomic.Int64
	server := newProviderStub(t, map[string]map[string]string{
		"OVERVIEW": {"Sector": "Technology"},
	}, &calls)
	defer server.Close()

	client := marketdata.NewClient(server.URL, "", cacheRepo, zerolog.Nop())

	first, err := client.GetFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := client.GetFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, int64(1), calls.Load(), "second lookup must be served from cache")
	assert.Equal(t, first.Sector, second.Sector)
}

func TestGetFundamentalsFallsBackToStaleCacheOnAPIFailure(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "client_data")
	defer cleanup()
	cacheRepo := clientdata.NewRepository(db.Conn())

	stale := &marketdata.Fundamentals{Sector: "Utilities"}
	require.NoError(t, cacheRepo.Store("fundamentals", "DUK", stale, -time.Minute))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := marketdata.NewClient(server.URL, "", cacheRepo, zerolog.Nop())

	f, err := client.GetFundamentals(context.Background(), "DUK")

	require.NoError(t, err, "a stale cache entry must mask the API failure")
	require.NotNil(t, f)
	assert.Equal(t, "Utilities", f.Sector)
}

func TestGetFundamentalsPropagatesAPIFailureWithoutCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := marketdata.NewClient(server.URL, "", nil, zerolog.Nop())

	_, err := client.GetFundamentals(context.Background(), "AAPL")
	assert.Error(t, err)
}
