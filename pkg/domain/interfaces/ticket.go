package interfaces

import (
	"context"
	"time"

	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// TicketRepository defines data access for tickets. Mutations are
// targeted single-row updates keyed by channel ID so concurrent
// operations serialize at the store, not in the application.
type TicketRepository interface {
	// Create inserts a new ticket row. Returns ErrAlreadyExists when the
	// channel already has a ticket or the ticket ID is taken.
	Create(ctx context.Context, t *model.Ticket) (*model.Ticket, error)

	// GetByChannel retrieves a ticket by its channel ID.
	GetByChannel(ctx context.Context, ch types.ChannelID) (*model.Ticket, error)

	// GetOpenByOwner retrieves the user's open ticket.
	// Returns nil, nil when the user has no open ticket.
	GetOpenByOwner(ctx context.Context, owner types.UserID) (*model.Ticket, error)

	// List retrieves all tickets, open and closed.
	List(ctx context.Context) ([]*model.Ticket, error)

	// ListByOwner retrieves all tickets created by the user.
	ListByOwner(ctx context.Context, owner types.UserID) ([]*model.Ticket, error)

	// ListOpenInactiveSince retrieves open tickets whose last activity is
	// strictly before the cutoff. Used by the inactivity sweep; results
	// reflect current state so re-running after a partial failure picks
	// up exactly the unprocessed remainder.
	ListOpenInactiveSince(ctx context.Context, cutoff time.Time) ([]*model.Ticket, error)

	// SetClaimed sets the claimant. The registry checks the claim
	// preconditions; the store only writes the field.
	SetClaimed(ctx context.Context, ch types.ChannelID, staff types.UserID) error

	// MarkClosed sets closed = true. One-way; never reverted.
	MarkClosed(ctx context.Context, ch types.ChannelID) error

	// BumpActivity advances last_activity to the given time.
	BumpActivity(ctx context.Context, ch types.ChannelID, at time.Time) error

	// AddParticipant appends the user to the additional-user set.
	AddParticipant(ctx context.Context, ch types.ChannelID, user types.UserID) error

	// RemoveParticipant removes the user from the additional-user set.
	RemoveParticipant(ctx context.Context, ch types.ChannelID, user types.UserID) error

	// SetCategory rewrites the ticket's category. Operator remap only.
	SetCategory(ctx context.Context, ch types.ChannelID, category types.CategoryID) error

	// Delete removes the ticket row. Only the archive-deletion sweep
	// calls this.
	Delete(ctx context.Context, ch types.ChannelID) error
}
