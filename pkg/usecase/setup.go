package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
	"github.com/lunar-city/ticketbot/pkg/utils/errutil"
	"github.com/lunar-city/ticketbot/pkg/utils/logging"
)

// PublishSetup posts the ticket-creation entry-point message in a
// channel and records its pointer. A previous entry point in the same
// channel is deleted best-effort so at most one stays live.
func (uc *UseCases) PublishSetup(ctx context.Context, ch types.ChannelID) (*model.SetupMessage, error) {
	if old, err := uc.repo.Setup().Get(ctx, ch); err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(err, "failed to look up setup pointer", goerr.V("channel_id", ch))
		}
	} else {
		if err := uc.chatSvc.DeleteMessage(ctx, ch, old.MessageID); err != nil {
			if !errors.Is(err, chat.ErrMessageNotFound) && !errors.Is(err, chat.ErrChannelNotFound) {
				_ = errutil.Handle(ctx, err, "failed to delete previous setup message")
			}
		}
	}

	msgID, err := uc.chatSvc.PublishSetupMenu(ctx, ch)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to publish setup menu", goerr.V("channel_id", ch))
	}

	setup := &model.SetupMessage{ChannelID: ch, MessageID: msgID}
	if err := uc.repo.Setup().Put(ctx, setup); err != nil {
		return nil, goerr.Wrap(err, "failed to persist setup pointer", goerr.V("channel_id", ch))
	}
	return setup, nil
}

// ReconcileSetups restores the entry-point messages after a restart:
// pointers whose message is gone are pruned, messages that lost their
// interactive components get the menu re-attached.
func (uc *UseCases) ReconcileSetups(ctx context.Context) error {
	setups, err := uc.repo.Setup().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list setup pointers")
	}

	logger := logging.From(ctx)
	for _, s := range setups {
		msg, err := uc.chatSvc.GetMessage(ctx, s.ChannelID, s.MessageID)
		if err != nil {
			if errors.Is(err, chat.ErrMessageNotFound) || errors.Is(err, chat.ErrChannelNotFound) {
				logger.Info("pruning stale setup pointer",
					"channel_id", s.ChannelID, "message_id", s.MessageID)
				if err := uc.repo.Setup().Delete(ctx, s.ChannelID); err != nil {
					_ = errutil.Handle(ctx, err, "failed to prune setup pointer")
				}
				continue
			}
			_ = errutil.Handle(ctx, err, "failed to verify setup message, skipping")
			continue
		}

		if msg.Interactive {
			continue
		}

		logger.Info("re-attaching setup menu",
			"channel_id", s.ChannelID, "message_id", s.MessageID)
		if err := uc.chatSvc.AttachSetupMenu(ctx, s.ChannelID, s.MessageID); err != nil {
			_ = errutil.Handle(ctx, err, "failed to re-attach setup menu")
		}
	}
	return nil
}

// Wipe removes all ticket data from the store. Operator surface only.
func (uc *UseCases) Wipe(ctx context.Context) error {
	if err := uc.repo.Wipe(ctx); err != nil {
		return goerr.Wrap(err, "failed to wipe ticket data")
	}
	return nil
}

// RemapCategories rewrites legacy category IDs on existing ticket rows
// and returns how many rows changed.
func (uc *UseCases) RemapCategories(ctx context.Context, mapping map[types.CategoryID]types.CategoryID) (int, error) {
	tickets, err := uc.repo.Ticket().List(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list tickets")
	}

	changed := 0
	for _, t := range tickets {
		next, ok := mapping[t.Category]
		if !ok || next == t.Category {
			continue
		}
		if err := uc.repo.Ticket().SetCategory(ctx, t.ChannelID, next); err != nil {
			return changed, goerr.Wrap(err, "failed to remap ticket category",
				goerr.V("channel_id", t.ChannelID),
				goerr.V("from", t.Category), goerr.V("to", next))
		}
		changed++
	}
	return changed, nil
}
