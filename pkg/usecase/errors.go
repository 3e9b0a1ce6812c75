package usecase

import "github.com/m-mizutani/goerr/v2"

// Registry outcomes. Each operation returns success or exactly one of
// these; the controller owns turning them into user-visible messages.
var (
	// ErrDuplicateOpenTicket carries KeyExistingChannel with the channel
	// of the requester's open ticket.
	ErrDuplicateOpenTicket = goerr.New("user already has an open ticket")

	ErrUnknownCategory      = goerr.New("unknown ticket category")
	ErrNotATicketChannel    = goerr.New("channel is not a ticket")
	ErrAlreadyClosed        = goerr.New("ticket is already closed")
	ErrAlreadyClaimedBySelf = goerr.New("ticket is already claimed by you")

	// ErrAlreadyClaimedByOther carries KeyClaimedBy with the claimant.
	ErrAlreadyClaimedByOther = goerr.New("ticket is already claimed by another staff member")

	ErrAlreadyHasAccess  = goerr.New("user already has access to the ticket")
	ErrNotAParticipant   = goerr.New("user is not a participant of the ticket")
	ErrCannotRemoveOwner = goerr.New("ticket owner cannot be removed")
	ErrPermissionDenied  = goerr.New("permission denied")
)

// goerr value keys attached to registry errors.
const (
	KeyExistingChannel = "existing_channel"
	KeyClaimedBy       = "claimed_by"
)
