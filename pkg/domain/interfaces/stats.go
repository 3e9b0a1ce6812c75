package interfaces

import (
	"context"

	"github.com/lunar-city/ticketbot/pkg/domain/model"
)

// StatsRepository defines data access for daily counters.
type StatsRepository interface {
	// Increment adds one to the day's counter for the given kind,
	// creating the day's bucket if absent. Additive, never overwrites.
	Increment(ctx context.Context, date model.StatDate, kind model.StatKind) error

	// Get retrieves one day's bucket.
	Get(ctx context.Context, date model.StatDate) (*model.DailyStats, error)

	// ListSince retrieves buckets with date >= since, newest first.
	// An empty since returns all buckets.
	ListSince(ctx context.Context, since model.StatDate) ([]*model.DailyStats, error)
}
