package model

// StatDate is a calendar day in "YYYY-MM-DD" form, the primary key of a
// daily stats bucket.
type StatDate string

func (d StatDate) String() string { return string(d) }

// DailyStats holds additive per-day counters. Each logged event
// increments, never overwrites, the day's bucket.
type DailyStats struct {
	Date    StatDate
	Opened  int64
	Closed  int64
	Claimed int64
}

// StatKind selects which counter an event increments.
type StatKind string

const (
	StatOpened  StatKind = "opened"
	StatClosed  StatKind = "closed"
	StatClaimed StatKind = "claimed"
)
