package overrides

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles manual override persistence.
// Writes for the same ticker are serialized through a keyed mutex on top of
// the ON CONFLICT upsert, so two concurrent Set calls can't interleave.
// Database: classification.db (classification_overrides table)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRepository creates a new override repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:    db,
		log:   log.With().Str("repository", "overrides").Logger(),
		locks: make(map[string]*sync.Mutex),
	}
}

// tickerLock returns the mutex serializing writes for one ticker.
// Entries are never released; the map is bounded by the number of distinct
// overridden tickers, a few thousand at most.
func (r *Repository) tickerLock(ticker string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[ticker]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[ticker] = lock
	}
	return lock
}

// Set creates or replaces the override for a ticker - upsert semantics,
// not additive. A zero EffectiveFrom means effective immediately.
func (r *Repository) Set(override *Override) error {
	override.Ticker = normalizeTicker(override.Ticker)
	if err := override.Validate(); err != nil {
		return err
	}

	lock := r.tickerLock(override.Ticker)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().Unix()
	if override.EffectiveFrom == 0 {
		override.EffectiveFrom = now
	}
	override.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO classification_overrides
			(ticker, asset_class, reason, created_by, effective_from, effective_until, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			asset_class = excluded.asset_class,
			reason = excluded.reason,
			created_by = excluded.created_by,
			effective_from = excluded.effective_from,
			effective_until = excluded.effective_until,
			updated_at = excluded.updated_at
	`, override.Ticker, override.AssetClass, override.Reason, override.CreatedBy,
		override.EffectiveFrom, override.EffectiveUntil, override.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set override for %s: %w", override.Ticker, err)
	}

	r.log.Info().
		Str("ticker", override.Ticker).
		Str("asset_class", override.AssetClass).
		Msg("Override set")

	return nil
}

// Remove deletes the override for a ticker. Subsequent classification falls
// back to the rule engine. Removing a missing override is not an error.
func (r *Repository) Remove(ticker string) error {
	ticker = normalizeTicker(ticker)

	lock := r.tickerLock(ticker)
	lock.Lock()
	defer lock.Unlock()

	result, err := r.db.Exec("DELETE FROM classification_overrides WHERE ticker = ?", ticker)
	if err != nil {
		return fmt.Errorf("failed to remove override for %s: %w", ticker, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected > 0 {
		r.log.Info().Str("ticker", ticker).Msg("Override removed")
	}

	return nil
}

// LookupActive returns the override for a ticker if its validity window
// covers now. Returns nil when there is no override or it is inert.
func (r *Repository) LookupActive(ticker string, now time.Time) (*Override, error) {
	ticker = normalizeTicker(ticker)
	ts := now.Unix()

	row := r.db.QueryRow(`
		SELECT ticker, asset_class, reason, created_by, effective_from, effective_until, updated_at
		FROM classification_overrides
		WHERE ticker = ?
			AND effective_from <= ?
			AND (effective_until IS NULL OR effective_until > ?)
	`, ticker, ts, ts)

	override, err := scanOverride(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup override for %s: %w", ticker, err)
	}

	return override, nil
}

// List returns all overrides, including inert ones, ordered by ticker.
func (r *Repository) List() ([]Override, error) {
	rows, err := r.db.Query(`
		SELECT ticker, asset_class, reason, created_by, effective_from, effective_until, updated_at
		FROM classification_overrides
		ORDER BY ticker ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	var result []Override
	for rows.Next() {
		override, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		result = append(result, *override)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate overrides: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOverride(s scanner) (*Override, error) {
	var o Override
	var reason, createdBy sql.NullString
	var effectiveUntil sql.NullInt64

	err := s.Scan(&o.Ticker, &o.AssetClass, &reason, &createdBy,
		&o.EffectiveFrom, &effectiveUntil, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if reason.Valid {
		o.Reason = &reason.String
	}
	if createdBy.Valid {
		o.CreatedBy = &createdBy.String
	}
	if effectiveUntil.Valid {
		o.EffectiveUntil = &effectiveUntil.Int64
	}

	return &o, nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
