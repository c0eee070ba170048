package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/aristath/assetclass/internal/modules/classification"
	"github.com/aristath/assetclass/internal/modules/classification/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	classifyErr error

	batchCalls  int
	lastTickers []string
	lastHint    domain.Characteristics
}

func (f *fakeService) Classify(ctx context.Context, ticker string, characteristics domain.Characteristics) (*classification.Result, error) {
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	return &classification.Result{Ticker: ticker, AssetClass: domain.ClassIndexETF}, nil
}

func (f *fakeService) GetClassification(ctx context.Context, ticker string) (*classification.Result, error) {
	return f.Classify(ctx, ticker, nil)
}

func (f *fakeService) ClassifyBatch(ctx context.Context, tickers []string, hint domain.Characteristics) (*classification.BatchOutcome, error) {
	f.batchCalls++
	f.lastTickers = tickers
	f.lastHint = hint

	results := make([]*classification.Result, 0, len(tickers))
	for _, ticker := range tickers {
		results = append(results, &classification.Result{Ticker: ticker, AssetClass: domain.ClassCoveredCallETF})
	}
	return &classification.BatchOutcome{Results: results, Errors: []classification.BatchError{}}, nil
}

func (f *fakeService) History(ticker string, limit int) ([]*classification.Result, error) {
	return nil, nil
}

func newTestRouter(service *fakeService) *chi.Mux {
	handler := handlers.NewHandler(service, service, zerolog.Nop())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func TestHandleClassifyBatch_AcceptsSharedCharacteristics(t *testing.T) {
	service := &fakeService{}
	router := newTestRouter(service)

	body := `{"tickers":["XYZQ","JEPI"],"characteristics":{"covered_call":true,"aum":600}}`
	req := httptest.NewRequest(http.MethodPost, "/classification/classify-batch", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, service.batchCalls)
	assert.Equal(t, []string{"XYZQ", "JEPI"}, service.lastTickers)
	assert.Equal(t, true, service.lastHint["covered_call"])
	assert.Equal(t, 600.0, service.lastHint["aum"])

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	metadata := response["metadata"].(map[string]interface{})
	assert.Equal(t, 2.0, metadata["requested"])
	assert.Equal(t, 2.0, metadata["succeeded"])
}

func TestHandleClassifyBatch_NoCharacteristicsIsValid(t *testing.T) {
	service := &fakeService{}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/classification/classify-batch",
		strings.NewReader(`{"tickers":["VOO"]}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, service.lastHint)
}

func TestHandleClassify_InvalidTickerIsBadRequest(t *testing.T) {
	service := &fakeService{
		classifyErr: fmt.Errorf("%w: invalid ticker %q", classification.ErrInvalidInput, "NOT A TICKER"),
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/classification/classify",
		strings.NewReader(`{"ticker":"NOT A TICKER"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid ticker")
}

func TestHandleClassify_InfrastructureFailureIsInternalError(t *testing.T) {
	service := &fakeService{classifyErr: errors.New("rule snapshot load failed: database is locked")}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/classification/classify",
		strings.NewReader(`{"ticker":"VOO"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")
}

func TestHandleClassify_MalformedBodyIsBadRequest(t *testing.T) {
	router := newTestRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/classification/classify",
		strings.NewReader(`{"ticker":`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
