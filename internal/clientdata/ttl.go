package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Fundamentals move with quarterly filings; a week of staleness is fine
	// for classification evidence.
	TTLFundamentals = 7 * 24 * time.Hour

	// ETF profiles (strategy flags, AUM, expense ratio) change rarely.
	TTLETFProfile = 7 * 24 * time.Hour
)
