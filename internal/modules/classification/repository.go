package classification

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/aristath/assetclass/internal/modules/benchmarks"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Repository handles classification record persistence.
// Database: classification.db (classifications table)
//
// Records are append-only: a reclassification inserts a new row and the
// latest row wins. Characteristics are stored as a msgpack blob since they
// are schemaless and read back only by this process; the derived fields
// (benchmarks, sub-scores, tax, matched rules) stay JSON so they remain
// inspectable with plain sqlite tooling.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new classification repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "classifications").Logger(),
	}
}

// Save persists a classification result as a new row.
func (r *Repository) Save(result *Result) error {
	if result == nil {
		return fmt.Errorf("nil result")
	}

	characteristicsBlob, err := msgpack.Marshal(result.Characteristics)
	if err != nil {
		return fmt.Errorf("failed to encode characteristics: %w", err)
	}

	benchmarksJSON, err := marshalNullable(result.Benchmarks)
	if err != nil {
		return fmt.Errorf("failed to marshal benchmarks: %w", err)
	}
	subScoresJSON, err := json.Marshal(result.SubScores)
	if err != nil {
		return fmt.Errorf("failed to marshal sub-scores: %w", err)
	}
	taxJSON, err := json.Marshal(result.TaxEfficiency)
	if err != nil {
		return fmt.Errorf("failed to marshal tax profile: %w", err)
	}
	matchedJSON, err := json.Marshal(result.MatchedRules)
	if err != nil {
		return fmt.Errorf("failed to marshal matched rules: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO classifications
			(id, ticker, asset_class, parent_class, confidence, is_hybrid, source,
			 characteristics, benchmarks, sub_scores, tax_efficiency, matched_rules,
			 classified_at, valid_until)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.ID, result.Ticker, result.AssetClass, result.ParentClass,
		result.Confidence, boolToInt(result.IsHybrid), string(result.Source),
		characteristicsBlob, benchmarksJSON, string(subScoresJSON), string(taxJSON),
		string(matchedJSON), result.ClassifiedAt.Unix(), result.ValidUntil.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert classification: %w", err)
	}

	r.log.Debug().
		Str("ticker", result.Ticker).
		Str("asset_class", result.AssetClass).
		Float64("confidence", result.Confidence).
		Msg("Classification saved")
	return nil
}

// GetLatest returns the most recent classification for a ticker regardless
// of freshness, or nil when the ticker has never been classified.
func (r *Repository) GetLatest(ticker string) (*Result, error) {
	row := r.db.QueryRow(`
		SELECT id, ticker, asset_class, parent_class, confidence, is_hybrid, source,
		       characteristics, benchmarks, sub_scores, tax_efficiency, matched_rules,
		       classified_at, valid_until
		FROM classifications
		WHERE ticker = ?
		ORDER BY classified_at DESC, id DESC
		LIMIT 1
	`, ticker)

	result, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get classification for %s: %w", ticker, err)
	}
	return result, nil
}

// History returns past classifications for a ticker, newest first.
func (r *Repository) History(ticker string, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`
		SELECT id, ticker, asset_class, parent_class, confidence, is_hybrid, source,
		       characteristics, benchmarks, sub_scores, tax_efficiency, matched_rules,
		       classified_at, valid_until
		FROM classifications
		WHERE ticker = ?
		ORDER BY classified_at DESC, id DESC
		LIMIT ?
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query classification history: %w", err)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// PruneHistory deletes superseded rows older than the cutoff, keeping the
// latest row per ticker so GetLatest keeps working for stale tickers.
func (r *Repository) PruneHistory(olderThan time.Time) (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM classifications
		WHERE classified_at < ?
		  AND id NOT IN (
			SELECT id FROM classifications c2
			WHERE c2.ticker = classifications.ticker
			ORDER BY c2.classified_at DESC, c2.id DESC
			LIMIT 1
		  )
	`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune classification history: %w", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		r.log.Info().Int64("deleted", deleted).Msg("Pruned classification history")
	}
	return deleted, nil
}

// scanner abstracts sql.Row / sql.Rows for scanResult.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(s scanner) (*Result, error) {
	var (
		result          Result
		isHybrid        int
		source          string
		characteristics []byte
		benchmarksJSON  sql.NullString
		subScoresJSON   string
		taxJSON         string
		matchedJSON     string
		classifiedAt    int64
		validUntil      int64
	)

	err := s.Scan(&result.ID, &result.Ticker, &result.AssetClass, &result.ParentClass,
		&result.Confidence, &isHybrid, &source, &characteristics, &benchmarksJSON,
		&subScoresJSON, &taxJSON, &matchedJSON, &classifiedAt, &validUntil)
	if err != nil {
		return nil, err
	}

	result.IsHybrid = isHybrid != 0
	result.Source = Source(source)
	result.ClassifiedAt = time.Unix(classifiedAt, 0).UTC()
	result.ValidUntil = time.Unix(validUntil, 0).UTC()

	if len(characteristics) > 0 {
		if err := msgpack.Unmarshal(characteristics, &result.Characteristics); err != nil {
			return nil, fmt.Errorf("failed to decode characteristics: %w", err)
		}
	}
	if result.Characteristics == nil {
		result.Characteristics = make(domain.Characteristics)
	}

	if benchmarksJSON.Valid && benchmarksJSON.String != "" {
		if err := json.Unmarshal([]byte(benchmarksJSON.String), &result.Benchmarks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal benchmarks: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(subScoresJSON), &result.SubScores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sub-scores: %w", err)
	}
	if err := json.Unmarshal([]byte(taxJSON), &result.TaxEfficiency); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tax profile: %w", err)
	}
	if err := json.Unmarshal([]byte(matchedJSON), &result.MatchedRules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matched rules: %w", err)
	}

	return &result, nil
}

// marshalNullable maps a missing benchmark profile to SQL NULL.
func marshalNullable(p *benchmarks.Profile) (interface{}, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
