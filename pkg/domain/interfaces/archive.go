package interfaces

import (
	"context"
	"time"

	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// ArchiveRepository defines data access for the scheduled-deletion
// records consumed by the deletion sweep.
type ArchiveRepository interface {
	// Put upserts the schedule record keyed by channel ID.
	Put(ctx context.Context, a *model.ArchivedTicket) error

	// Get retrieves the record for a channel.
	Get(ctx context.Context, ch types.ChannelID) (*model.ArchivedTicket, error)

	// ListDue retrieves records with delete_at <= now.
	ListDue(ctx context.Context, now time.Time) ([]*model.ArchivedTicket, error)

	// Delete removes the record after the channel is gone.
	Delete(ctx context.Context, ch types.ChannelID) error
}
