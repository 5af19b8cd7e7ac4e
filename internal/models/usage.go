package models

import "time"

// UsageCounter is the per-day, per-provider call counter. One row per
// (provider, date); counts are monotonically non-decreasing within a day and
// a new day gets a new row, never a reset of the old one.
type UsageCounter struct {
	Provider   string    `json:"provider"`
	Date       string    `json:"date"` // YYYY-MM-DD, UTC
	TotalCalls int       `json:"totalCalls"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UsageDate formats a time as a usage counter date key.
func UsageDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// APICallRecord is the audit row written for every provider request,
// successful or not.
type APICallRecord struct {
	Provider   string    `json:"provider"`
	Resource   string    `json:"resource"`
	Params     string    `json:"params,omitempty"`
	OK         bool      `json:"ok"`
	StatusCode int       `json:"statusCode"`
	DurationMs int64     `json:"durationMs"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
