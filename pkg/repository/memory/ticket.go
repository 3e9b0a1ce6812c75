package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

type ticketRepository struct {
	mu      sync.RWMutex
	tickets map[types.ChannelID]*model.Ticket
	byToken map[types.TicketID]types.ChannelID
}

func newTicketRepository() *ticketRepository {
	return &ticketRepository{
		tickets: make(map[types.ChannelID]*model.Ticket),
		byToken: make(map[types.TicketID]types.ChannelID),
	}
}

func (r *ticketRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets = make(map[types.ChannelID]*model.Ticket)
	r.byToken = make(map[types.TicketID]types.ChannelID)
}

// copyTicket creates a deep copy so callers cannot mutate stored state.
func copyTicket(t *model.Ticket) *model.Ticket {
	additional := make([]types.UserID, len(t.AdditionalUsers))
	copy(additional, t.AdditionalUsers)

	return &model.Ticket{
		ChannelID:       t.ChannelID,
		TicketID:        t.TicketID,
		Owner:           t.Owner,
		Category:        t.Category,
		ClaimedBy:       t.ClaimedBy,
		Closed:          t.Closed,
		CreatedAt:       t.CreatedAt,
		LastActivity:    t.LastActivity,
		AdditionalUsers: additional,
	}
}

func (r *ticketRepository) Create(ctx context.Context, t *model.Ticket) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tickets[t.ChannelID]; exists {
		return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "channel already has a ticket",
			goerr.V("channel_id", t.ChannelID))
	}
	if _, exists := r.byToken[t.TicketID]; exists {
		return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "ticket ID is taken",
			goerr.V("ticket_id", t.TicketID))
	}

	now := time.Now().UTC()
	created := copyTicket(t)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	if created.LastActivity.IsZero() {
		created.LastActivity = created.CreatedAt
	}

	r.tickets[created.ChannelID] = created
	r.byToken[created.TicketID] = created.ChannelID
	return copyTicket(created), nil
}

func (r *ticketRepository) GetByChannel(ctx context.Context, ch types.ChannelID) (*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tickets[ch]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
	}
	return copyTicket(t), nil
}

func (r *ticketRepository) GetOpenByOwner(ctx context.Context, owner types.UserID) (*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tickets {
		if t.Owner == owner && !t.Closed {
			return copyTicket(t), nil
		}
	}
	return nil, nil
}

func (r *ticketRepository) List(ctx context.Context) ([]*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := make([]*model.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		tickets = append(tickets, copyTicket(t))
	}
	return tickets, nil
}

func (r *ticketRepository) ListByOwner(ctx context.Context, owner types.UserID) ([]*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tickets []*model.Ticket
	for _, t := range r.tickets {
		if t.Owner == owner {
			tickets = append(tickets, copyTicket(t))
		}
	}
	return tickets, nil
}

func (r *ticketRepository) ListOpenInactiveSince(ctx context.Context, cutoff time.Time) ([]*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tickets []*model.Ticket
	for _, t := range r.tickets {
		if !t.Closed && t.LastActivity.Before(cutoff) {
			tickets = append(tickets, copyTicket(t))
		}
	}
	return tickets, nil
}

func (r *ticketRepository) SetClaimed(ctx context.Context, ch types.ChannelID, staff types.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tickets[ch]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
	}
	t.ClaimedBy = staff
	return nil
}

func (r *ticketRepository) MarkClosed(ctx context.Context, ch types.ChannelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tickets[ch]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
	}
	t.Closed = true
	return nil
}

func (r *ticketRepository) BumpActivity(ctx context.Context, ch types.ChannelID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tickets[ch]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
	}
	if at.After(t.LastActivity) {
		t.LastActivity = at
	}
	return nil
}

func (r *ticketRepository) AddParticipant(ctx context.Context, ch types.ChannelID, user types.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tickets[ch]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
	}
	if !slices.Contains(t.AdditionalUsers, user) {
		t.AdditionalUsers = append(t.AdditionalUsers, user)
	}
	return nil
}

func (r *ticketRepository) RemoveParticipant(ctx context.Context, ch types.ChannelID, user types.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tickets[ch]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
	}
	t.AdditionalUsers = slices.DeleteFunc(t.AdditionalUsers, func(u types.UserID) bool {
		return u == user
	})
	return nil
}

func (r *ticketRepository) SetCategory(ctx context.Context, ch types.ChannelID, category types.CategoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tickets[ch]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
	}
	t.Category = category
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, ch types.ChannelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tickets[ch]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
	}
	delete(r.byToken, t.TicketID)
	delete(r.tickets, ch)
	return nil
}
