package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

func TestPublishSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes the menu and records the pointer", func(t *testing.T) {
		env := newTestEnv(t)
		env.chat.AddChannel("C-lobby", "lobby")

		setup, err := env.uc.PublishSetup(ctx, "C-lobby")
		gt.NoError(t, err).Required()
		gt.Value(t, setup.ChannelID).Equal(types.ChannelID("C-lobby"))

		ch := env.chat.GetChannel("C-lobby")
		gt.Array(t, ch.Messages).Length(1)
		gt.Bool(t, ch.Messages[0].Interactive).True()

		stored, err := env.repo.Setup().Get(ctx, "C-lobby")
		gt.NoError(t, err).Required()
		gt.Value(t, stored.MessageID).Equal(setup.MessageID)
	})

	t.Run("republishing replaces the previous message", func(t *testing.T) {
		env := newTestEnv(t)
		env.chat.AddChannel("C-lobby", "lobby")

		first, err := env.uc.PublishSetup(ctx, "C-lobby")
		gt.NoError(t, err).Required()
		second, err := env.uc.PublishSetup(ctx, "C-lobby")
		gt.NoError(t, err).Required()
		gt.Value(t, second.MessageID).NotEqual(first.MessageID)

		ch := env.chat.GetChannel("C-lobby")
		gt.Array(t, ch.Messages).Length(1)
		gt.Value(t, ch.Messages[0].ID).Equal(second.MessageID)

		stored, err := env.repo.Setup().Get(ctx, "C-lobby")
		gt.NoError(t, err).Required()
		gt.Value(t, stored.MessageID).Equal(second.MessageID)
	})
}

func TestReconcileSetups(t *testing.T) {
	ctx := context.Background()

	t.Run("prunes pointers whose message is gone", func(t *testing.T) {
		env := newTestEnv(t)
		env.chat.AddChannel("C-lobby", "lobby")

		gt.NoError(t, env.repo.Setup().Put(ctx, &model.SetupMessage{
			ChannelID: "C-lobby", MessageID: "M-deleted",
		})).Required()

		gt.NoError(t, env.uc.ReconcileSetups(ctx)).Required()

		_, err := env.repo.Setup().Get(ctx, "C-lobby")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("prunes pointers whose channel is gone", func(t *testing.T) {
		env := newTestEnv(t)

		gt.NoError(t, env.repo.Setup().Put(ctx, &model.SetupMessage{
			ChannelID: "C-vanished", MessageID: "M1",
		})).Required()

		gt.NoError(t, env.uc.ReconcileSetups(ctx)).Required()

		_, err := env.repo.Setup().Get(ctx, "C-vanished")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("re-attaches the menu when components were lost", func(t *testing.T) {
		env := newTestEnv(t)
		env.chat.AddChannel("C-lobby", "lobby")

		setup, err := env.uc.PublishSetup(ctx, "C-lobby")
		gt.NoError(t, err).Required()
		env.chat.DropInteractive("C-lobby")

		gt.NoError(t, env.uc.ReconcileSetups(ctx)).Required()

		ch := env.chat.GetChannel("C-lobby")
		gt.Array(t, ch.Messages).Length(1)
		gt.Bool(t, ch.Messages[0].Interactive).True()

		stored, err := env.repo.Setup().Get(ctx, "C-lobby")
		gt.NoError(t, err).Required()
		gt.Value(t, stored.MessageID).Equal(setup.MessageID)
	})

	t.Run("intact messages stay untouched", func(t *testing.T) {
		env := newTestEnv(t)
		env.chat.AddChannel("C-lobby", "lobby")

		setup, err := env.uc.PublishSetup(ctx, "C-lobby")
		gt.NoError(t, err).Required()

		gt.NoError(t, env.uc.ReconcileSetups(ctx)).Required()

		ch := env.chat.GetChannel("C-lobby")
		gt.Array(t, ch.Messages).Length(1)
		gt.Value(t, ch.Messages[0].ID).Equal(setup.MessageID)
	})
}

func TestRemapCategories(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	legacy, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
	gt.NoError(t, err).Required()
	keep, err := env.uc.CreateTicket(ctx, "U2", "other")
	gt.NoError(t, err).Required()

	changed, err := env.uc.RemapCategories(ctx, map[types.CategoryID]types.CategoryID{
		"reportBug": "other",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, changed).Equal(1)

	got, err := env.repo.Ticket().GetByChannel(ctx, legacy.ChannelID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Category).Equal(types.CategoryID("other"))

	got, err = env.repo.Ticket().GetByChannel(ctx, keep.ChannelID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Category).Equal(types.CategoryID("other"))

	// A second run with the same mapping changes nothing
	changed, err = env.uc.RemapCategories(ctx, map[types.CategoryID]types.CategoryID{
		"reportBug": "other",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, changed).Equal(0)
}
