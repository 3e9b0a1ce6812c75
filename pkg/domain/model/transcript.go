package model

import (
	"time"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// Transcript records the outcome of closing a ticket. PasteURL is empty
// when the upload failed; closing still succeeds in that case.
// Transcript rows survive ticket deletion as the audit trail.
type Transcript struct {
	ChannelID types.ChannelID
	PasteURL  string
	ClosedAt  time.Time
	ClosedBy  types.UserID
}
