package classification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/aristath/assetclass/internal/modules/benchmarks"
	"github.com/aristath/assetclass/internal/modules/overrides"
	"github.com/aristath/assetclass/internal/modules/rules"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultEnrichmentThreshold gates the second pass: below this confidence
// after pass 1, enrichment runs.
const DefaultEnrichmentThreshold = 0.70

// tickerPattern bounds what we accept as a ticker symbol before any engine
// work happens.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)

// ErrInvalidInput marks caller mistakes (malformed tickers, bad batch
// shapes) so handlers can tell them apart from infrastructure failures.
var ErrInvalidInput = errors.New("invalid input")

// OverrideSource looks up the active manual override for a ticker.
type OverrideSource interface {
	LookupActive(ticker string, now time.Time) (*overrides.Override, error)
}

// RuleEvaluator runs the rule engine over a ticker and its characteristics.
type RuleEvaluator interface {
	Evaluate(ticker string, characteristics domain.Characteristics) (rules.Evaluation, error)
}

// EnrichmentGateway fetches a best-effort characteristics delta.
type EnrichmentGateway interface {
	Fetch(ctx context.Context, ticker string) domain.Characteristics
}

// Orchestrator drives the classification cascade:
// OVERRIDE_CHECK -> PASS_1 -> (ENRICH -> PASS_2)? -> FINALIZE.
type Orchestrator struct {
	overrideSource OverrideSource
	engine         RuleEvaluator
	enricher       EnrichmentGateway
	threshold      float64
	cacheTTL       time.Duration
	log            zerolog.Logger

	now func() time.Time
}

// NewOrchestrator creates a classification orchestrator.
// A threshold <= 0 falls back to the default.
func NewOrchestrator(
	overrideSource OverrideSource,
	engine RuleEvaluator,
	enricher EnrichmentGateway,
	threshold float64,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *Orchestrator {
	if threshold <= 0 {
		threshold = DefaultEnrichmentThreshold
	}
	return &Orchestrator{
		overrideSource: overrideSource,
		engine:         engine,
		enricher:       enricher,
		threshold:      threshold,
		cacheTTL:       cacheTTL,
		log:            log.With().Str("component", "orchestrator").Logger(),
		now:            time.Now,
	}
}

// SetClock replaces the time source. Used in tests.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Classify runs the full cascade for one ticker.
//
// An active override terminates immediately with confidence 1.0 and no
// matched rules. Otherwise pass 1 runs against the caller-supplied
// characteristics; if confidence lands below the threshold, enrichment
// merges a delta (enrichment fields win on collision) and pass 2 re-runs
// the engine. A completely unmatched ticker is a valid terminal state,
// not an error. Only input validation fails hard.
func (o *Orchestrator) Classify(ctx context.Context, ticker string, characteristics domain.Characteristics) (*Result, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	if characteristics == nil {
		characteristics = make(domain.Characteristics)
	}

	now := o.now()

	// OVERRIDE_CHECK - an active override skips all further states.
	override, err := o.overrideSource.LookupActive(ticker, now)
	if err != nil {
		return nil, fmt.Errorf("override lookup failed for %s: %w", ticker, err)
	}
	if override != nil {
		o.log.Debug().
			Str("ticker", ticker).
			Str("asset_class", override.AssetClass).
			Msg("Override short-circuit")
		return o.finalize(ticker, override.AssetClass, 1.0, false, nil, characteristics, SourceOverride, now), nil
	}

	// PASS_1 against caller-supplied characteristics (possibly empty).
	evaluation, err := o.engine.Evaluate(ticker, characteristics)
	if err != nil {
		return nil, fmt.Errorf("rule evaluation failed for %s: %w", ticker, err)
	}
	source := SourceRuleEngine

	if evaluation.Confidence < o.threshold {
		// ENRICH + PASS_2. Enrichment failure yields an empty delta; the
		// re-evaluation then sees the same characteristics, which is fine -
		// source still records that the enrichment path ran.
		delta := o.enricher.Fetch(ctx, ticker)
		characteristics = characteristics.Merge(delta)

		evaluation, err = o.engine.Evaluate(ticker, characteristics)
		if err != nil {
			return nil, fmt.Errorf("rule re-evaluation failed for %s: %w", ticker, err)
		}
		source = SourceRuleEngineEnrichment
	}

	return o.finalize(ticker, evaluation.AssetClass, evaluation.Confidence,
		evaluation.IsHybrid, evaluation.MatchedRules, characteristics, source, now), nil
}

// finalize attaches benchmarks, sub-scores, and the tax profile, and stamps
// the cache horizon. The tax profile is built unconditionally - tax guidance
// must be present even for UNKNOWN or overridden classifications.
func (o *Orchestrator) finalize(
	ticker, assetClass string,
	confidence float64,
	isHybrid bool,
	matchedRules []rules.RuleMatch,
	characteristics domain.Characteristics,
	source Source,
	now time.Time,
) *Result {
	if matchedRules == nil {
		matchedRules = []rules.RuleMatch{}
	}

	return &Result{
		ID:              uuid.New().String(),
		Ticker:          ticker,
		AssetClass:      assetClass,
		ParentClass:     domain.ParentClass(assetClass),
		Confidence:      confidence,
		IsHybrid:        isHybrid,
		Characteristics: characteristics,
		Benchmarks:      benchmarks.Lookup(assetClass),
		SubScores:       benchmarks.Score(assetClass, characteristics),
		TaxEfficiency:   BuildTaxProfile(assetClass, characteristics),
		MatchedRules:    matchedRules,
		Source:          source,
		ClassifiedAt:    now,
		ValidUntil:      now.Add(o.cacheTTL),
	}
}

// normalizeTicker validates and canonicalizes a ticker symbol.
// Malformed tickers are the one hard failure in the classification path.
func normalizeTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !tickerPattern.MatchString(ticker) {
		return "", fmt.Errorf("%w: invalid ticker %q", ErrInvalidInput, ticker)
	}
	return ticker, nil
}
