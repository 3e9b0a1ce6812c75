package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/repository/memory"
)

func runStoreTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("User Put is an upsert", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first := time.Now().UTC().Truncate(time.Millisecond)
		gt.NoError(t, repo.User().Put(ctx, &model.User{
			ID: "U1", DisplayName: "alice", LastSeen: first,
		})).Required()

		later := first.Add(time.Hour)
		gt.NoError(t, repo.User().Put(ctx, &model.User{
			ID: "U1", DisplayName: "alice2", LastSeen: later,
		})).Required()

		got, err := repo.User().Get(ctx, "U1")
		gt.NoError(t, err).Required()
		gt.Value(t, got.DisplayName).Equal("alice2")
		gt.Bool(t, got.LastSeen.Equal(later)).True()

		_, err = repo.User().Get(ctx, "U404")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Stats Increment is additive", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		date := model.StatDate("2026-08-20")

		gt.NoError(t, repo.Stats().Increment(ctx, date, model.StatOpened)).Required()
		gt.NoError(t, repo.Stats().Increment(ctx, date, model.StatOpened)).Required()
		gt.NoError(t, repo.Stats().Increment(ctx, date, model.StatClosed)).Required()
		gt.NoError(t, repo.Stats().Increment(ctx, date, model.StatClaimed)).Required()

		got, err := repo.Stats().Get(ctx, date)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Opened).Equal(int64(2))
		gt.Value(t, got.Closed).Equal(int64(1))
		gt.Value(t, got.Claimed).Equal(int64(1))
	})

	t.Run("Stats ListSince filters and sorts newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, d := range []model.StatDate{"2026-08-01", "2026-08-10", "2026-08-20"} {
			gt.NoError(t, repo.Stats().Increment(ctx, d, model.StatOpened)).Required()
		}

		got, err := repo.Stats().ListSince(ctx, "2026-08-05")
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(2)
		gt.Value(t, got[0].Date).Equal(model.StatDate("2026-08-20"))
		gt.Value(t, got[1].Date).Equal(model.StatDate("2026-08-10"))

		all, err := repo.Stats().ListSince(ctx, "")
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(3)
	})

	t.Run("Transcript Put overwrites at close time", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Millisecond)

		gt.NoError(t, repo.Transcript().Put(ctx, &model.Transcript{
			ChannelID: "C1", PasteURL: "", ClosedAt: now, ClosedBy: "U1",
		})).Required()
		gt.NoError(t, repo.Transcript().Put(ctx, &model.Transcript{
			ChannelID: "C1", PasteURL: "https://paste.example/x", ClosedAt: now, ClosedBy: "U1",
		})).Required()

		got, err := repo.Transcript().Get(ctx, "C1")
		gt.NoError(t, err).Required()
		gt.Value(t, got.PasteURL).Equal("https://paste.example/x")
	})

	t.Run("Setup pointers are listed and deleted", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Setup().Put(ctx, &model.SetupMessage{ChannelID: "C1", MessageID: "M1"})).Required()
		gt.NoError(t, repo.Setup().Put(ctx, &model.SetupMessage{ChannelID: "C2", MessageID: "M2"})).Required()

		setups, err := repo.Setup().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, setups).Length(2)

		gt.NoError(t, repo.Setup().Delete(ctx, "C1")).Required()

		_, err = repo.Setup().Get(ctx, "C1")
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		gt.Error(t, repo.Setup().Delete(ctx, "C1")).Is(interfaces.ErrNotFound)
	})

	t.Run("Archive ListDue returns only expired schedules", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()

		gt.NoError(t, repo.Archive().Put(ctx, &model.ArchivedTicket{
			ChannelID: "C1", TicketID: "AAAA1111", DeleteAt: now.Add(-time.Second),
		})).Required()
		gt.NoError(t, repo.Archive().Put(ctx, &model.ArchivedTicket{
			ChannelID: "C2", TicketID: "AAAA2222", DeleteAt: now.Add(time.Hour),
		})).Required()

		due, err := repo.Archive().ListDue(ctx, now)
		gt.NoError(t, err).Required()
		gt.Array(t, due).Length(1)
		gt.Value(t, due[0].ChannelID).Equal(types.ChannelID("C1"))

		gt.NoError(t, repo.Archive().Delete(ctx, "C1")).Required()
		due, err = repo.Archive().ListDue(ctx, now)
		gt.NoError(t, err).Required()
		gt.Array(t, due).Length(0)
	})

	t.Run("Wipe clears every entity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.User().Put(ctx, &model.User{ID: "U1"})).Required()
		_, err := repo.Ticket().Create(ctx, newTicket("C1", "ZZZZ1111", "U1"))
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Stats().Increment(ctx, "2026-08-20", model.StatOpened)).Required()
		gt.NoError(t, repo.Setup().Put(ctx, &model.SetupMessage{ChannelID: "C9", MessageID: "M9"})).Required()

		gt.NoError(t, repo.Wipe(ctx)).Required()

		_, err = repo.User().Get(ctx, "U1")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
		_, err = repo.Ticket().GetByChannel(ctx, "C1")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
		setups, err := repo.Setup().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, setups).Length(0)
	})
}

func TestStore_Memory(t *testing.T) {
	runStoreTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestStore_Firestore(t *testing.T) {
	if os.Getenv("TEST_FIRESTORE_PROJECT_ID") == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	runStoreTest(t, newFirestoreRepo)
}
