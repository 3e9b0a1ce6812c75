package model

import (
	"time"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// ArchivedTicket schedules a closed ticket's channel for deletion.
// Created at close time and consumed by the deletion sweep.
type ArchivedTicket struct {
	ChannelID types.ChannelID
	TicketID  types.TicketID
	DeleteAt  time.Time
}
