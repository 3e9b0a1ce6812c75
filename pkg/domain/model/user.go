package model

import (
	"time"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// User is a chat-platform member observed by the bot. Rows are upserted
// on every observed activity and never deleted.
type User struct {
	ID          types.UserID
	DisplayName string
	LastSeen    time.Time
}
