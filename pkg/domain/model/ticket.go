package model

import (
	"slices"
	"time"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// Ticket is a support conversation, 1:1 with a created channel.
// ChannelID is the primary key; TicketID is the human-facing token.
type Ticket struct {
	ChannelID       types.ChannelID
	TicketID        types.TicketID
	Owner           types.UserID
	Category        types.CategoryID
	ClaimedBy       types.UserID
	Closed          bool
	CreatedAt       time.Time
	LastActivity    time.Time
	AdditionalUsers []types.UserID
}

// Status derives the lifecycle state from the stored fields.
func (t *Ticket) Status() types.TicketStatus {
	switch {
	case t.Closed:
		return types.TicketStatusClosed
	case t.ClaimedBy != "":
		return types.TicketStatusClaimed
	default:
		return types.TicketStatusOpen
	}
}

// HasAccess reports whether the user is the owner or a granted participant.
func (t *Ticket) HasAccess(user types.UserID) bool {
	return t.Owner == user || slices.Contains(t.AdditionalUsers, user)
}

// IsParticipant reports whether the user is in the additional-user set
// (the owner is not a participant in this sense and cannot be removed).
func (t *Ticket) IsParticipant(user types.UserID) bool {
	return slices.Contains(t.AdditionalUsers, user)
}
