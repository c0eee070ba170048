// Package overrides implements the manual classification override store.
// An active override bypasses rule evaluation entirely and always wins.
package overrides

import (
	"fmt"
	"time"
)

// Override is a manually asserted classification for a ticker.
// At most one override exists per ticker; Set replaces, never appends.
type Override struct {
	Ticker         string  `json:"ticker"`
	AssetClass     string  `json:"asset_class"`
	Reason         *string `json:"reason,omitempty"`
	CreatedBy      *string `json:"created_by,omitempty"`
	EffectiveFrom  int64   `json:"effective_from"`
	EffectiveUntil *int64  `json:"effective_until,omitempty"` // Unset = open-ended
	UpdatedAt      int64   `json:"updated_at"`
}

// ActiveAt reports whether the override's validity window covers the instant.
// An override whose effective_until has passed is inert.
func (o *Override) ActiveAt(now time.Time) bool {
	ts := now.Unix()
	if o.EffectiveFrom > ts {
		return false
	}
	if o.EffectiveUntil != nil && *o.EffectiveUntil <= ts {
		return false
	}
	return true
}

// Validate checks override fields before any database work.
func (o *Override) Validate() error {
	if o.Ticker == "" {
		return fmt.Errorf("override requires a ticker")
	}
	if o.AssetClass == "" {
		return fmt.Errorf("override requires an asset class")
	}
	if o.EffectiveUntil != nil && *o.EffectiveUntil <= o.EffectiveFrom {
		return fmt.Errorf("effective_until must be after effective_from")
	}
	return nil
}
