package interfaces

import (
	"context"

	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// SetupRepository defines data access for ticket-creation entry-point
// message pointers.
type SetupRepository interface {
	// Put upserts the pointer keyed by channel ID.
	Put(ctx context.Context, s *model.SetupMessage) error

	// Get retrieves the pointer for a channel.
	Get(ctx context.Context, ch types.ChannelID) (*model.SetupMessage, error)

	// List retrieves all pointers.
	List(ctx context.Context) ([]*model.SetupMessage, error)

	// Delete removes a stale pointer.
	Delete(ctx context.Context, ch types.ChannelID) error
}
