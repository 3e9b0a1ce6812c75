package model

import "github.com/lunar-city/ticketbot/pkg/domain/types"

// SetupMessage points at the persistent ticket-creation entry-point
// message in a channel. At most one per channel.
type SetupMessage struct {
	ChannelID types.ChannelID
	MessageID types.MessageID
}
