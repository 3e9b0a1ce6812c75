package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
)

func TestBuildTranscript(t *testing.T) {
	ctx := context.Background()

	t.Run("renders header and messages oldest first", func(t *testing.T) {
		env := newTestEnv(t)

		gt.NoError(t, env.repo.User().Put(ctx, &model.User{
			ID: "U1", DisplayName: "alice", LastSeen: *env.clock,
		})).Required()
		gt.NoError(t, env.repo.User().Put(ctx, &model.User{
			ID: "S1", DisplayName: "bob", LastSeen: *env.clock,
		})).Required()

		env.chat.AddChannel("C-transcript", "tk-reportbug-aaaa1111")
		env.chat.InjectMessage("C-transcript", chat.Message{
			ID:        "M1",
			Author:    "U1",
			Text:      "hello I need help",
			Timestamp: time.Date(2026, 8, 20, 12, 5, 0, 0, time.UTC),
		})
		env.chat.InjectMessage("C-transcript", chat.Message{
			ID:          "M2",
			Author:      "S1",
			Text:        "on it",
			Timestamp:   time.Date(2026, 8, 20, 12, 10, 0, 0, time.UTC),
			Attachments: []string{"screen.png", "log.txt"},
		})

		ticket := &model.Ticket{
			ChannelID: "C-transcript",
			TicketID:  "AAAA1111",
			Owner:     "U1",
			Category:  "reportBug",
			CreatedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		}
		closedAt := time.Date(2026, 8, 20, 13, 0, 0, 0, time.UTC)

		got, err := env.uc.BuildTranscript(ctx, ticket, "S1", closedAt)
		gt.NoError(t, err).Required()

		want := "Ticket ID: AAAA1111\n" +
			"Created by: alice\n" +
			"Category: reportBug\n" +
			"Created at: 2026-08-20 12:00:00\n" +
			"Closed at: 2026-08-20 13:00:00\n" +
			"Closed by: bob\n" +
			"\n" +
			"[2026-08-20 12:05:00] alice: hello I need help\n" +
			"[2026-08-20 12:10:00] bob: on it [Attachments: screen.png, log.txt]\n"
		gt.Value(t, got).Equal(want)
	})

	t.Run("unknown authors fall back to the platform profile", func(t *testing.T) {
		env := newTestEnv(t)

		env.chat.AddChannel("C-anon", "tk-other-bbbb2222")
		env.chat.InjectMessage("C-anon", chat.Message{
			ID:        "M1",
			Author:    "U999",
			Text:      "who am I",
			Timestamp: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		})

		ticket := &model.Ticket{
			ChannelID: "C-anon",
			TicketID:  "BBBB2222",
			Owner:     "U999",
			Category:  "other",
			CreatedAt: *env.clock,
		}

		got, err := env.uc.BuildTranscript(ctx, ticket, "U999", *env.clock)
		gt.NoError(t, err).Required()
		gt.String(t, got).Contains("[2026-08-20 12:00:00] user-U999: who am I")
	})

	t.Run("missing channel does not abort the close", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()
		gt.NoError(t, env.chat.DeleteChannel(ctx, ticket.ChannelID)).Required()

		tr, err := env.uc.CloseTicket(ctx, ticket.ChannelID, "U1", false, "done")
		gt.NoError(t, err).Required()
		gt.Value(t, tr.PasteURL).Equal("")

		stored, err := env.repo.Ticket().GetByChannel(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.Closed).True()
	})
}

func TestDisplayNamePrecedence(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// A tracked message records the display name the transcript later uses
	ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
	gt.NoError(t, err).Required()
	gt.NoError(t, env.uc.TrackActivity(ctx, ticket.ChannelID, "U1", "alice", *env.clock)).Required()

	env.chat.InjectMessage(ticket.ChannelID, chat.Message{
		ID:        "MX",
		Author:    types.UserID("U1"),
		Text:      "ping",
		Timestamp: *env.clock,
	})

	got, err := env.uc.BuildTranscript(ctx, ticket, "U1", *env.clock)
	gt.NoError(t, err).Required()
	gt.String(t, got).Contains("Created by: alice")
	gt.String(t, got).Contains("alice: ping")
}
