package types

import (
	"crypto/rand"
	"math/big"

	"github.com/m-mizutani/goerr/v2"
)

// TicketID is the human-facing 8-character ticket token.
type TicketID string

const (
	ticketIDLength   = 8
	ticketIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewTicketID generates a random ticket ID from [A-Z0-9].
// Uniqueness is enforced by the store; callers reroll on collision.
func NewTicketID() TicketID {
	buf := make([]byte, ticketIDLength)
	max := big.NewInt(int64(len(ticketIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failure means the process is in a bad state
			panic(err)
		}
		buf[i] = ticketIDAlphabet[n.Int64()]
	}
	return TicketID(buf)
}

func (id TicketID) String() string { return string(id) }

func (id TicketID) Validate() error {
	if len(id) != ticketIDLength {
		return goerr.New("ticket ID must be 8 characters", goerr.V("ticket_id", string(id)))
	}
	for _, c := range id {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return goerr.New("ticket ID must be uppercase alphanumeric", goerr.V("ticket_id", string(id)))
		}
	}
	return nil
}
