package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultTieMargin marks two classes as a hybrid when their accumulated
// scores are this close. Configurable via the engine constructor.
const DefaultTieMargin = 0.05

// RuleSource provides the rule snapshot the engine evaluates against.
type RuleSource interface {
	ListActive() ([]Rule, error)
}

// Evaluation is the outcome of running the rule set against one ticker.
type Evaluation struct {
	AssetClass   string             `json:"asset_class"`
	Confidence   float64            `json:"confidence"`
	IsHybrid     bool               `json:"is_hybrid"`
	MatchedRules []RuleMatch        `json:"matched_rules"`
	ClassScores  map[string]float64 `json:"class_scores"`
}

// Engine evaluates classification rules against ticker characteristics.
// Evaluation is a pure function over its inputs plus the rule snapshot;
// the engine itself only caches compiled ticker regexes.
type Engine struct {
	source    RuleSource
	tieMargin float64
	log       zerolog.Logger

	mu      sync.RWMutex
	regexes map[string]*regexp.Regexp
}

// NewEngine creates a rule engine. A tieMargin <= 0 falls back to the default.
func NewEngine(source RuleSource, tieMargin float64, log zerolog.Logger) *Engine {
	if tieMargin <= 0 {
		tieMargin = DefaultTieMargin
	}
	return &Engine{
		source:    source,
		tieMargin: tieMargin,
		log:       log.With().Str("component", "rule_engine").Logger(),
		regexes:   make(map[string]*regexp.Regexp),
	}
}

// Evaluate runs every active rule against the ticker and its characteristics.
// Each matching rule contributes its confidence weight to a running score for
// its asset class; accumulation is an additive heuristic, not a probability
// combination. The winning class's score, clamped to [0,1], is the confidence.
// No matching rule yields UNKNOWN with confidence 0.
func (e *Engine) Evaluate(ticker string, characteristics domain.Characteristics) (Evaluation, error) {
	activeRules, err := e.source.ListActive()
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to load rule snapshot: %w", err)
	}

	scores := make(map[string]float64)
	var matched []RuleMatch

	for i := range activeRules {
		rule := &activeRules[i]
		ok, err := e.matches(rule, ticker, characteristics)
		if err != nil {
			// A malformed stored rule must not poison the whole evaluation.
			e.log.Warn().Err(err).Str("rule_id", rule.ID).Msg("Skipping unevaluable rule")
			continue
		}
		if !ok {
			continue
		}

		scores[rule.AssetClass] += rule.ConfidenceWeight
		matched = append(matched, RuleMatch{
			RuleID:     rule.ID,
			AssetClass: rule.AssetClass,
			Weight:     rule.ConfidenceWeight,
		})
	}

	if len(scores) == 0 {
		return Evaluation{
			AssetClass:  domain.ClassUnknown,
			Confidence:  0.0,
			ClassScores: scores,
		}, nil
	}

	winner, winnerScore := pickWinner(scores)

	confidence := winnerScore
	if confidence > 1.0 {
		confidence = 1.0
	}

	// Hybrid when a runner-up lands within the tie margin of the winner.
	isHybrid := false
	for class, score := range scores {
		if class == winner {
			continue
		}
		if winnerScore-score <= e.tieMargin {
			isHybrid = true
			break
		}
	}

	e.log.Debug().
		Str("ticker", ticker).
		Str("asset_class", winner).
		Float64("confidence", confidence).
		Bool("is_hybrid", isHybrid).
		Int("matched", len(matched)).
		Msg("Rule evaluation complete")

	return Evaluation{
		AssetClass:   winner,
		Confidence:   confidence,
		IsHybrid:     isHybrid,
		MatchedRules: matched,
		ClassScores:  scores,
	}, nil
}

// pickWinner returns the class with the highest accumulated score.
// Score ties break alphabetically so evaluation stays deterministic.
func pickWinner(scores map[string]float64) (string, float64) {
	classes := make([]string, 0, len(scores))
	for class := range scores {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	winner := ""
	winnerScore := -1.0
	for _, class := range classes {
		if scores[class] > winnerScore {
			winner = class
			winnerScore = scores[class]
		}
	}
	return winner, winnerScore
}

// matches dispatches on the rule type. The switch is exhaustive over the
// RuleType variants; unknown types are an error, not a silent no-match.
func (e *Engine) matches(rule *Rule, ticker string, characteristics domain.Characteristics) (bool, error) {
	switch rule.RuleType {
	case RuleTypeTickerPattern:
		re, err := e.compiled(rule.Config.Pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(strings.ToUpper(ticker)), nil

	case RuleTypeSector:
		sector := characteristics.GetString("sector")
		return sector != "" && strings.EqualFold(sector, rule.Config.Sector), nil

	case RuleTypeFeature:
		return characteristics.IsTruthy(rule.Config.Feature), nil

	case RuleTypeMetadata:
		value := characteristics.GetString(rule.Config.Key)
		return value != "" && strings.EqualFold(value, rule.Config.Value), nil

	default:
		return false, fmt.Errorf("unknown rule type: %s", rule.RuleType)
	}
}

// compiled returns a cached compiled regex for the pattern.
func (e *Engine) compiled(pattern string) (*regexp.Regexp, error) {
	e.mu.RLock()
	re, ok := e.regexes[pattern]
	e.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid ticker pattern %q: %w", pattern, err)
	}

	e.mu.Lock()
	e.regexes[pattern] = re
	e.mu.Unlock()

	return re, nil
}
