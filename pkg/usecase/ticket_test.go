package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/repository/memory"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
	"github.com/lunar-city/ticketbot/pkg/service/chat/mock"
	"github.com/lunar-city/ticketbot/pkg/usecase"
)

func testCategories() []chat.Category {
	return []chat.Category{
		{ID: "reportBug", Name: "Report a Bug", Emoji: "🐛"},
		{ID: "other", Name: "Other", Emoji: "❓"},
	}
}

type stubUploader struct {
	url   string
	err   error
	calls int
}

func (s *stubUploader) Upload(ctx context.Context, title, content string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

type testEnv struct {
	repo     interfaces.Repository
	chat     *mock.Service
	uploader *stubUploader
	clock    *time.Time
	uc       *usecase.UseCases
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	env := &testEnv{
		repo:     memory.New(),
		chat:     mock.New(),
		uploader: &stubUploader{url: "https://paste.example/abc"},
		clock:    &now,
	}
	env.uc = usecase.New(env.repo, env.chat, testCategories(),
		usecase.WithUploader(env.uploader),
		usecase.WithArchiveRetention(10*24*time.Hour),
		usecase.WithClock(func() time.Time { return *env.clock }),
	)
	return env
}

func (e *testEnv) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("creates channel, row, welcome pin and stat", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()
		gt.NoError(t, ticket.TicketID.Validate())
		gt.Value(t, ticket.Owner).Equal(types.UserID("U1"))
		gt.Value(t, ticket.Status()).Equal(types.TicketStatusOpen)

		ch := env.chat.GetChannel(ticket.ChannelID)
		gt.Value(t, ch).NotNil()
		gt.Bool(t, ch.Members["U1"]).True()
		gt.Array(t, ch.Messages).Length(1)
		gt.Bool(t, ch.Messages[0].Interactive).True()
		gt.Value(t, len(ch.Pins)).Equal(1)

		stored, err := env.repo.Ticket().GetByChannel(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.TicketID).Equal(ticket.TicketID)

		stats, err := env.repo.Stats().Get(ctx, "2026-08-20")
		gt.NoError(t, err).Required()
		gt.Value(t, stats.Opened).Equal(int64(1))
	})

	t.Run("rejects a second open ticket for the same user", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		before := env.chat.ContainerCount()
		_, err = env.uc.CreateTicket(ctx, "U1", "other")
		gt.Error(t, err).Is(usecase.ErrDuplicateOpenTicket)

		// The error names the existing channel and nothing was created
		var ge *goerr.Error
		gt.Bool(t, errors.As(err, &ge)).True()
		gt.Value(t, ge.Values()[usecase.KeyExistingChannel]).Equal(first.ChannelID)

		tickets, err := env.repo.Ticket().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, tickets).Length(1)
		gt.Value(t, env.chat.ContainerCount()).Equal(before)
	})

	t.Run("a closed ticket frees the owner for a new one", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()
		_, err = env.uc.CloseTicket(ctx, first.ChannelID, "U1", false, "done")
		gt.NoError(t, err).Required()

		_, err = env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.uc.CreateTicket(ctx, "U1", "nonsense")
		gt.Error(t, err).Is(usecase.ErrUnknownCategory)
	})

	t.Run("one container per category", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()
		_, err = env.uc.CloseTicket(ctx, first.ChannelID, "U1", false, "done")
		gt.NoError(t, err).Required()

		_, err = env.uc.CreateTicket(ctx, "U2", "reportBug")
		gt.NoError(t, err).Required()

		// reportBug container + archive container
		gt.Value(t, env.chat.ContainerCount()).Equal(2)
	})
}

func TestClaimTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("claim is set-once", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		claimed, err := env.uc.ClaimTicket(ctx, ticket.ChannelID, "S1", true)
		gt.NoError(t, err).Required()
		gt.Value(t, claimed.ClaimedBy).Equal(types.UserID("S1"))
		gt.Value(t, claimed.Status()).Equal(types.TicketStatusClaimed)

		_, err = env.uc.ClaimTicket(ctx, ticket.ChannelID, "S1", true)
		gt.Error(t, err).Is(usecase.ErrAlreadyClaimedBySelf)

		_, err = env.uc.ClaimTicket(ctx, ticket.ChannelID, "S2", true)
		gt.Error(t, err).Is(usecase.ErrAlreadyClaimedByOther)

		// Neither rejected attempt mutated the claimant
		stored, err := env.repo.Ticket().GetByChannel(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.ClaimedBy).Equal(types.UserID("S1"))

		stats, err := env.repo.Stats().Get(ctx, "2026-08-20")
		gt.NoError(t, err).Required()
		gt.Value(t, stats.Claimed).Equal(int64(1))
	})

	t.Run("non-staff cannot claim", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		_, err = env.uc.ClaimTicket(ctx, ticket.ChannelID, "U1", false)
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)
	})

	t.Run("claiming a non-ticket channel fails", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.uc.ClaimTicket(ctx, "C404", "S1", true)
		gt.Error(t, err).Is(usecase.ErrNotATicketChannel)
	})
}

func TestCloseTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("full close sequence", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		tr, err := env.uc.CloseTicket(ctx, ticket.ChannelID, "S1", true, "Manually closed")
		gt.NoError(t, err).Required()
		gt.Value(t, tr.PasteURL).Equal("https://paste.example/abc")
		gt.Value(t, tr.ClosedBy).Equal(types.UserID("S1"))
		gt.Value(t, env.uploader.calls).Equal(1)

		stored, err := env.repo.Ticket().GetByChannel(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.Closed).True()
		gt.Value(t, stored.Status()).Equal(types.TicketStatusClosed)

		archived, err := env.repo.Archive().Get(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		gt.Value(t, archived.TicketID).Equal(ticket.TicketID)
		gt.Bool(t, archived.DeleteAt.Equal(env.clock.Add(10*24*time.Hour))).True()

		// Channel moved into the archive container
		ch := env.chat.GetChannel(ticket.ChannelID)
		gt.Value(t, ch.Container).NotEqual(types.ContainerID(""))

		// Owner got the closure DM with the transcript URL
		dms := env.chat.DirectMessages("U1")
		gt.Array(t, dms).Length(1)

		stats, err := env.repo.Stats().Get(ctx, "2026-08-20")
		gt.NoError(t, err).Required()
		gt.Value(t, stats.Closed).Equal(int64(1))
	})

	t.Run("close is one-way and produces exactly one transcript and schedule", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		_, err = env.uc.CloseTicket(ctx, ticket.ChannelID, "U1", false, "done")
		gt.NoError(t, err).Required()

		_, err = env.uc.CloseTicket(ctx, ticket.ChannelID, "U1", false, "done again")
		gt.Error(t, err).Is(usecase.ErrAlreadyClosed)

		_, err = env.repo.Transcript().Get(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		_, err = env.repo.Archive().Get(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		gt.Value(t, env.uploader.calls).Equal(1)
	})

	t.Run("only staff or the owner can close", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		_, err = env.uc.CloseTicket(ctx, ticket.ChannelID, "U2", false, "nope")
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		stored, err := env.repo.Ticket().GetByChannel(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.Closed).False()
	})

	t.Run("upload failure degrades to an empty URL", func(t *testing.T) {
		env := newTestEnv(t)
		env.uploader.err = goerr.New("paste service down")

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		tr, err := env.uc.CloseTicket(ctx, ticket.ChannelID, "U1", false, "done")
		gt.NoError(t, err).Required()
		gt.Value(t, tr.PasteURL).Equal("")

		stored, err := env.repo.Ticket().GetByChannel(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.Closed).True()
	})

	t.Run("unreachable owner does not abort the close", func(t *testing.T) {
		env := newTestEnv(t)
		env.chat.SetUnreachable("U1")

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		_, err = env.uc.CloseTicket(ctx, ticket.ChannelID, "U1", false, "done")
		gt.NoError(t, err).Required()

		stored, err := env.repo.Ticket().GetByChannel(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.Closed).True()
	})
}

func TestParticipants(t *testing.T) {
	ctx := context.Background()

	t.Run("add and remove round trip", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		gt.NoError(t, env.uc.AddParticipant(ctx, ticket.ChannelID, "U1", "U2", false)).Required()

		ch := env.chat.GetChannel(ticket.ChannelID)
		gt.Bool(t, ch.Members["U2"]).True()

		gt.Error(t, env.uc.AddParticipant(ctx, ticket.ChannelID, "U1", "U2", false)).
			Is(usecase.ErrAlreadyHasAccess)
		gt.Error(t, env.uc.AddParticipant(ctx, ticket.ChannelID, "U1", "U1", false)).
			Is(usecase.ErrAlreadyHasAccess)

		gt.NoError(t, env.uc.RemoveParticipant(ctx, ticket.ChannelID, "U1", "U2", false)).Required()
		gt.Bool(t, env.chat.GetChannel(ticket.ChannelID).Members["U2"]).False()

		gt.Error(t, env.uc.RemoveParticipant(ctx, ticket.ChannelID, "U1", "U2", false)).
			Is(usecase.ErrNotAParticipant)
		gt.Error(t, env.uc.RemoveParticipant(ctx, ticket.ChannelID, "U1", "U1", false)).
			Is(usecase.ErrCannotRemoveOwner)
	})

	t.Run("strangers cannot manage participants", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		gt.Error(t, env.uc.AddParticipant(ctx, ticket.ChannelID, "U9", "U2", false)).
			Is(usecase.ErrPermissionDenied)
	})

	t.Run("closed tickets reject membership changes", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()
		_, err = env.uc.CloseTicket(ctx, ticket.ChannelID, "U1", false, "done")
		gt.NoError(t, err).Required()

		gt.Error(t, env.uc.AddParticipant(ctx, ticket.ChannelID, "U1", "U2", false)).
			Is(usecase.ErrAlreadyClosed)
	})
}

func TestTrackActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps ticket activity and upserts the user", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		at := env.clock.Add(2 * time.Hour)
		gt.NoError(t, env.uc.TrackActivity(ctx, ticket.ChannelID, "U1", "alice", at)).Required()

		stored, err := env.repo.Ticket().GetByChannel(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.LastActivity.Equal(at)).True()

		user, err := env.repo.User().Get(ctx, "U1")
		gt.NoError(t, err).Required()
		gt.Value(t, user.DisplayName).Equal("alice")
	})

	t.Run("messages in non-ticket channels only update the user", func(t *testing.T) {
		env := newTestEnv(t)

		gt.NoError(t, env.uc.TrackActivity(ctx, "C-lobby", "U5", "bob", *env.clock)).Required()

		_, err := env.repo.User().Get(ctx, "U5")
		gt.NoError(t, err).Required()
	})
}

func TestInactivitySweep(t *testing.T) {
	ctx := context.Background()

	t.Run("closes stale tickets and leaves fresh ones", func(t *testing.T) {
		env := newTestEnv(t)

		stale, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()

		env.advance(3 * 24 * time.Hour)
		fresh, err := env.uc.CreateTicket(ctx, "U2", "reportBug")
		gt.NoError(t, err).Required()
		env.advance(24 * time.Hour)

		// stale: 4 days idle; fresh: 1 day idle; threshold: 3 days
		closed, err := env.uc.CloseInactiveTickets(ctx, 3*24*time.Hour)
		gt.NoError(t, err).Required()
		gt.Value(t, closed).Equal(1)

		staleStored, err := env.repo.Ticket().GetByChannel(ctx, stale.ChannelID)
		gt.NoError(t, err).Required()
		gt.Bool(t, staleStored.Closed).True()

		freshStored, err := env.repo.Ticket().GetByChannel(ctx, fresh.ChannelID)
		gt.NoError(t, err).Required()
		gt.Bool(t, freshStored.Closed).False()

		// The sweep closes as the bot identity
		tr, err := env.repo.Transcript().Get(ctx, stale.ChannelID)
		gt.NoError(t, err).Required()
		gt.Value(t, tr.ClosedBy).Equal(env.chat.BotUserID())
	})

	t.Run("rerunning the sweep is idempotent", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()
		env.advance(4 * 24 * time.Hour)

		closed, err := env.uc.CloseInactiveTickets(ctx, 3*24*time.Hour)
		gt.NoError(t, err).Required()
		gt.Value(t, closed).Equal(1)

		closed, err = env.uc.CloseInactiveTickets(ctx, 3*24*time.Hour)
		gt.NoError(t, err).Required()
		gt.Value(t, closed).Equal(0)
		gt.Value(t, env.uploader.calls).Equal(1)
	})
}

func TestArchiveSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes expired archives, keeps transcripts", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()
		_, err = env.uc.CloseTicket(ctx, ticket.ChannelID, "U1", false, "done")
		gt.NoError(t, err).Required()

		// Not yet due
		deleted, err := env.uc.DeleteExpiredArchives(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, deleted).Equal(0)

		env.advance(10*24*time.Hour + time.Second)

		deleted, err = env.uc.DeleteExpiredArchives(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, deleted).Equal(1)

		_, err = env.repo.Ticket().GetByChannel(ctx, ticket.ChannelID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
		_, err = env.repo.Archive().Get(ctx, ticket.ChannelID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		// The audit trail survives
		_, err = env.repo.Transcript().Get(ctx, ticket.ChannelID)
		gt.NoError(t, err).Required()

		gt.Bool(t, env.chat.GetChannel(ticket.ChannelID).Deleted).True()
	})

	t.Run("tolerates a channel that is already gone", func(t *testing.T) {
		env := newTestEnv(t)

		gt.NoError(t, env.repo.Archive().Put(ctx, &model.ArchivedTicket{
			ChannelID: "C-gone",
			TicketID:  "AAAA1111",
			DeleteAt:  env.clock.Add(-time.Hour),
		})).Required()

		deleted, err := env.uc.DeleteExpiredArchives(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, deleted).Equal(1)

		_, err = env.repo.Archive().Get(ctx, "C-gone")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})
}
