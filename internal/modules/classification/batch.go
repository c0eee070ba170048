package classification

import (
	"context"
	"fmt"
	"sync"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxBatchSize caps a single batch request.
	DefaultMaxBatchSize = 100

	// DefaultBatchWorkers bounds concurrent classifications within a batch.
	DefaultBatchWorkers = 8
)

// Classifier runs the single-asset cascade. Satisfied by *Orchestrator.
type Classifier interface {
	Classify(ctx context.Context, ticker string, characteristics domain.Characteristics) (*Result, error)
}

// BatchClassifier fans a batch of tickers across a bounded worker pool.
// One ticker failing never aborts the rest of the batch.
type BatchClassifier struct {
	classifier Classifier
	maxSize    int
	workers    int
	log        zerolog.Logger
}

// NewBatchClassifier creates a batch classifier. Non-positive limits fall
// back to the defaults.
func NewBatchClassifier(classifier Classifier, maxSize, workers int, log zerolog.Logger) *BatchClassifier {
	if maxSize <= 0 {
		maxSize = DefaultMaxBatchSize
	}
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	return &BatchClassifier{
		classifier: classifier,
		maxSize:    maxSize,
		workers:    workers,
		log:        log.With().Str("component", "batch_classifier").Logger(),
	}
}

// ClassifyBatch classifies every ticker in the request concurrently.
// The hint, when present, is shared by the whole batch: every ticker is
// classified against its own copy, same shape as a single classify call.
// Results preserve request order. Per-ticker failures are collected in
// the outcome rather than failing the batch; only an oversized or empty
// request fails as a whole.
func (b *BatchClassifier) ClassifyBatch(ctx context.Context, tickers []string, hint domain.Characteristics) (*BatchOutcome, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: batch is empty", ErrInvalidInput)
	}
	if len(tickers) > b.maxSize {
		return nil, fmt.Errorf("%w: batch size %d exceeds limit %d", ErrInvalidInput, len(tickers), b.maxSize)
	}

	results := make([]*Result, len(tickers))

	var mu sync.Mutex
	var errs []BatchError

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			var characteristics domain.Characteristics
			if hint != nil {
				characteristics = hint.Clone()
			}
			result, err := b.classifier.Classify(gctx, ticker, characteristics)
			if err != nil {
				b.log.Warn().Err(err).Str("ticker", ticker).Msg("Batch item failed")
				mu.Lock()
				errs = append(errs, BatchError{Ticker: ticker, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			results[i] = result
			return nil
		})
	}

	// Workers only return nil; Wait is for completion, not error collection.
	_ = g.Wait()

	compacted := make([]*Result, 0, len(tickers))
	for _, r := range results {
		if r != nil {
			compacted = append(compacted, r)
		}
	}

	b.log.Debug().
		Int("requested", len(tickers)).
		Int("classified", len(compacted)).
		Int("failed", len(errs)).
		Msg("Batch complete")

	return &BatchOutcome{Results: compacted, Errors: errs}, nil
}
