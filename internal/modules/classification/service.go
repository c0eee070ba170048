package classification

import (
	"context"
	"time"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/rs/zerolog"
)

// ResultStore persists and retrieves classification records.
// Satisfied by *Repository.
type ResultStore interface {
	Save(result *Result) error
	GetLatest(ticker string) (*Result, error)
}

// Service is the cache-aware front of the classification module. Reads serve
// a stored record while it is fresh; anything stale or missing triggers a
// full reclassification which is persisted before being returned.
type Service struct {
	orchestrator Classifier
	batch        *BatchClassifier
	store        ResultStore
	log          zerolog.Logger

	now func() time.Time
}

// NewService creates a classification service.
func NewService(orchestrator Classifier, batch *BatchClassifier, store ResultStore, log zerolog.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		batch:        batch,
		store:        store,
		log:          log.With().Str("service", "classification").Logger(),
		now:          time.Now,
	}
}

// Classify always runs the cascade, ignoring any stored record, and persists
// the outcome. Persistence failure is logged but does not discard the result.
func (s *Service) Classify(ctx context.Context, ticker string, characteristics domain.Characteristics) (*Result, error) {
	result, err := s.orchestrator.Classify(ctx, ticker, characteristics)
	if err != nil {
		return nil, err
	}
	s.persist(result)
	return result, nil
}

// GetClassification returns the stored record for a ticker if it is still
// within its cache horizon, reclassifying otherwise.
func (s *Service) GetClassification(ctx context.Context, ticker string) (*Result, error) {
	normalized, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.GetLatest(normalized)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", normalized).Msg("Classification lookup failed, reclassifying")
	} else if stored != nil && stored.FreshAt(s.now()) {
		return stored, nil
	}

	return s.Classify(ctx, normalized, nil)
}

// ClassifyBatch classifies a batch against a shared hint and persists every
// successful result.
func (s *Service) ClassifyBatch(ctx context.Context, tickers []string, hint domain.Characteristics) (*BatchOutcome, error) {
	outcome, err := s.batch.ClassifyBatch(ctx, tickers, hint)
	if err != nil {
		return nil, err
	}
	for _, result := range outcome.Results {
		s.persist(result)
	}
	return outcome, nil
}

func (s *Service) persist(result *Result) {
	if err := s.store.Save(result); err != nil {
		s.log.Error().Err(err).Str("ticker", result.Ticker).Msg("Failed to persist classification")
	}
}
