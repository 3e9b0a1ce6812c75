package types

// TicketStatus is the derived lifecycle state of a ticket. It is not
// stored directly; it is computed from the Claimed/Closed fields so the
// stored row stays the single source of truth.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "OPEN"
	TicketStatusClaimed TicketStatus = "CLAIMED"
	TicketStatusClosed  TicketStatus = "CLOSED"
)

func (s TicketStatus) String() string { return string(s) }
