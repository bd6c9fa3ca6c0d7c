package models

import "time"

// Short link resolution outcomes.
const (
	OutcomeResolved = "resolved"
	OutcomeNotFound = "not_found"
)

// UnknownCode is the code recorded for lookups that did not resolve.
const UnknownCode = "unknown"

// ShortLinkLookup is the hit count of one short code for one outcome.
type ShortLinkLookup struct {
	Code       string
	Outcome    string
	Count      int64
	LastSeenAt time.Time
}

// TableCount is the row count of one table, exported as a gauge.
type TableCount struct {
	Table string
	Rows  int64
}
