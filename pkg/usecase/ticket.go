package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
	"github.com/lunar-city/ticketbot/pkg/utils/errutil"
	"github.com/lunar-city/ticketbot/pkg/utils/logging"
)

// ticket ID collisions are vanishingly rare in a 36^8 key space, but
// the store rejects them and we reroll rather than fail the user.
const maxTicketIDAttempts = 5

func (uc *UseCases) category(id types.CategoryID) (*chat.Category, bool) {
	for i := range uc.categories {
		if uc.categories[i].ID == id {
			return &uc.categories[i], true
		}
	}
	return nil, false
}

// CreateTicket opens a new ticket for the user: a private channel under
// the category's container, a ticket row, a pinned welcome message and
// an opened-stat bump. The row is inserted only after the channel is
// confirmed created, so a failed channel creation never leaves an
// orphan row. The reverse failure leaves an orphan channel, which is
// logged and left for manual cleanup.
func (uc *UseCases) CreateTicket(ctx context.Context, user types.UserID, categoryID types.CategoryID) (*model.Ticket, error) {
	category, ok := uc.category(categoryID)
	if !ok {
		return nil, goerr.Wrap(ErrUnknownCategory, "category is not configured",
			goerr.V("category", categoryID))
	}

	if existing, err := uc.repo.Ticket().GetOpenByOwner(ctx, user); err != nil {
		return nil, goerr.Wrap(err, "failed to check for open ticket", goerr.V("user_id", user))
	} else if existing != nil {
		return nil, goerr.Wrap(ErrDuplicateOpenTicket, "one open ticket per user",
			goerr.V("user_id", user),
			goerr.V(KeyExistingChannel, existing.ChannelID))
	}

	container, err := uc.chatSvc.EnsureContainer(ctx, fmt.Sprintf("%s-%s", ticketContainerPrefix, categoryID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to ensure category container",
			goerr.V("category", categoryID))
	}

	ticketID := types.NewTicketID()
	topic := fmt.Sprintf("%s ticket for <@%s> (ID: %s)", category.Name, user, ticketID)

	channelID, err := uc.chatSvc.CreateChannel(ctx, ticketID.String(), container, topic, user)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create ticket channel",
			goerr.V("user_id", user), goerr.V("category", categoryID))
	}

	now := uc.now().UTC()
	ticket := &model.Ticket{
		ChannelID:    channelID,
		TicketID:     ticketID,
		Owner:        user,
		Category:     categoryID,
		CreatedAt:    now,
		LastActivity: now,
	}

	created, err := uc.insertWithReroll(ctx, ticket)
	if err != nil {
		// The channel exists but the row does not. Logged, not retried.
		logging.From(ctx).Error("orphan ticket channel left behind",
			"channel_id", channelID, "ticket_id", ticketID, "error", err)
		return nil, goerr.Wrap(err, "failed to insert ticket row",
			goerr.V("channel_id", channelID))
	}

	if msgID, err := uc.chatSvc.PostWelcome(ctx, channelID, created); err != nil {
		_ = errutil.Handle(ctx, err, "failed to post welcome message")
	} else if err := uc.chatSvc.PinMessage(ctx, channelID, msgID); err != nil {
		_ = errutil.Handle(ctx, err, "failed to pin welcome message")
	}

	uc.bumpStat(ctx, model.StatOpened)

	return created, nil
}

// insertWithReroll inserts the ticket row, generating a fresh ticket ID
// when the store reports the token as taken.
func (uc *UseCases) insertWithReroll(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < maxTicketIDAttempts; attempt++ {
		created, err := uc.repo.Ticket().Create(ctx, ticket)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, interfaces.ErrAlreadyExists) {
			return nil, err
		}

		lastErr = err
		logging.From(ctx).Warn("ticket ID collision, rerolling",
			"ticket_id", ticket.TicketID, "attempt", attempt+1)
		ticket.TicketID = types.NewTicketID()
	}
	return nil, goerr.Wrap(lastErr, "ticket ID space exhausted after retries")
}

// GetTicket looks up the ticket for a channel, mapping absence to
// ErrNotATicketChannel.
func (uc *UseCases) GetTicket(ctx context.Context, ch types.ChannelID) (*model.Ticket, error) {
	ticket, err := uc.repo.Ticket().GetByChannel(ctx, ch)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNotATicketChannel, "no ticket for channel",
				goerr.V("channel_id", ch))
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("channel_id", ch))
	}
	return ticket, nil
}

// ClaimTicket assigns the ticket to a staff member. Claim is set-once:
// it holds until close, with no unclaim or re-claim.
func (uc *UseCases) ClaimTicket(ctx context.Context, ch types.ChannelID, staff types.UserID, isStaff bool) (*model.Ticket, error) {
	if !isStaff {
		return nil, goerr.Wrap(ErrPermissionDenied, "only staff can claim tickets",
			goerr.V("user_id", staff))
	}

	ticket, err := uc.GetTicket(ctx, ch)
	if err != nil {
		return nil, err
	}

	switch {
	case ticket.Closed:
		return nil, goerr.Wrap(ErrAlreadyClosed, "cannot claim a closed ticket",
			goerr.V("channel_id", ch))
	case ticket.ClaimedBy == staff:
		return nil, goerr.Wrap(ErrAlreadyClaimedBySelf, "ticket is yours already",
			goerr.V("channel_id", ch))
	case ticket.ClaimedBy != "":
		return nil, goerr.Wrap(ErrAlreadyClaimedByOther, "ticket is taken",
			goerr.V("channel_id", ch),
			goerr.V(KeyClaimedBy, ticket.ClaimedBy))
	}

	if err := uc.repo.Ticket().SetClaimed(ctx, ch, staff); err != nil {
		return nil, goerr.Wrap(err, "failed to set claimant", goerr.V("channel_id", ch))
	}
	ticket.ClaimedBy = staff

	uc.bumpStat(ctx, model.StatClaimed)

	if _, err := uc.chatSvc.PostMessage(ctx, ch,
		fmt.Sprintf("🎫 This ticket is now being handled by <@%s>.", staff)); err != nil {
		_ = errutil.Handle(ctx, err, "failed to announce claim")
	}

	return ticket, nil
}

// CloseTicket runs the close sequence: transcript from the channel
// history, best-effort paste upload, transcript row, closed flag, DM
// and channel notice, move to the archive container, deletion schedule,
// closed-stat bump. The sweep and user-triggered closes run this same
// path; only closer and reason differ.
func (uc *UseCases) CloseTicket(ctx context.Context, ch types.ChannelID, closer types.UserID, isStaff bool, reason string) (*model.Transcript, error) {
	ticket, err := uc.GetTicket(ctx, ch)
	if err != nil {
		return nil, err
	}

	if ticket.Closed {
		return nil, goerr.Wrap(ErrAlreadyClosed, "ticket is already closed",
			goerr.V("channel_id", ch))
	}
	if !isStaff && closer != ticket.Owner {
		return nil, goerr.Wrap(ErrPermissionDenied, "only staff or the owner can close",
			goerr.V("channel_id", ch), goerr.V("user_id", closer))
	}

	now := uc.now().UTC()

	// A missing channel degrades the transcript but never aborts the
	// close. The sweep relies on this to make progress on tickets whose
	// channels were removed out of band.
	pasteURL := ""
	content, err := uc.BuildTranscript(ctx, ticket, closer, now)
	if err != nil {
		_ = errutil.Handle(ctx, err, "failed to build transcript, closing without one")
	} else {
		url, err := uc.uploader.Upload(ctx, fmt.Sprintf("ticket-%s", ticket.TicketID), content)
		if err != nil {
			_ = errutil.Handle(ctx, err, "transcript upload failed, closing without URL")
		} else {
			pasteURL = url
		}
	}

	transcript := &model.Transcript{
		ChannelID: ch,
		PasteURL:  pasteURL,
		ClosedAt:  now,
		ClosedBy:  closer,
	}
	if err := uc.repo.Transcript().Put(ctx, transcript); err != nil {
		return nil, goerr.Wrap(err, "failed to persist transcript", goerr.V("channel_id", ch))
	}

	if err := uc.repo.Ticket().MarkClosed(ctx, ch); err != nil {
		return nil, goerr.Wrap(err, "failed to mark ticket closed", goerr.V("channel_id", ch))
	}

	uc.notifyClose(ctx, ticket, closer, reason, pasteURL)

	archive, err := uc.chatSvc.EnsureContainer(ctx, archivedContainer)
	if err != nil {
		_ = errutil.Handle(ctx, err, "failed to ensure archive container")
	} else if err := uc.chatSvc.MoveToContainer(ctx, ch, archive); err != nil {
		if !errors.Is(err, chat.ErrChannelNotFound) {
			_ = errutil.Handle(ctx, err, "failed to archive ticket channel")
		}
	}

	if err := uc.repo.Archive().Put(ctx, &model.ArchivedTicket{
		ChannelID: ch,
		TicketID:  ticket.TicketID,
		DeleteAt:  now.Add(uc.archiveRetention),
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to schedule channel deletion", goerr.V("channel_id", ch))
	}

	uc.bumpStat(ctx, model.StatClosed)

	return transcript, nil
}

func (uc *UseCases) notifyClose(ctx context.Context, ticket *model.Ticket, closer types.UserID, reason, pasteURL string) {
	urlText := pasteURL
	if urlText == "" {
		urlText = "Not available"
	}

	notice := fmt.Sprintf("🔒 Ticket %s closed by <@%s>.\nReason: %s\nTranscript: %s",
		ticket.TicketID, closer, reason, urlText)
	if _, err := uc.chatSvc.PostMessage(ctx, ticket.ChannelID, notice); err != nil {
		if !errors.Is(err, chat.ErrChannelNotFound) {
			_ = errutil.Handle(ctx, err, "failed to post close notice")
		}
	}

	dm := fmt.Sprintf("Your ticket %s has been closed.\nReason: %s\nTranscript: %s",
		ticket.TicketID, reason, urlText)
	if err := uc.chatSvc.DirectMessage(ctx, ticket.Owner, dm); err != nil {
		// Owners who left or disabled DMs are expected; log and move on.
		logging.From(ctx).Warn("failed to DM ticket owner",
			"user_id", ticket.Owner, "ticket_id", ticket.TicketID, "error", err)
	}
}

// AddParticipant grants a user access to an open ticket.
func (uc *UseCases) AddParticipant(ctx context.Context, ch types.ChannelID, actor, target types.UserID, isStaff bool) error {
	ticket, err := uc.GetTicket(ctx, ch)
	if err != nil {
		return err
	}

	if ticket.Closed {
		return goerr.Wrap(ErrAlreadyClosed, "cannot modify a closed ticket",
			goerr.V("channel_id", ch))
	}
	if !isStaff && actor != ticket.Owner {
		return goerr.Wrap(ErrPermissionDenied, "only staff or the owner can add users",
			goerr.V("channel_id", ch), goerr.V("user_id", actor))
	}
	if ticket.HasAccess(target) {
		return goerr.Wrap(ErrAlreadyHasAccess, "user already has access",
			goerr.V("channel_id", ch), goerr.V("user_id", target))
	}

	if err := uc.repo.Ticket().AddParticipant(ctx, ch, target); err != nil {
		return goerr.Wrap(err, "failed to add participant", goerr.V("channel_id", ch))
	}

	if err := uc.chatSvc.GrantAccess(ctx, ch, target); err != nil {
		_ = errutil.Handle(ctx, err, "failed to grant channel access")
	}

	if _, err := uc.chatSvc.PostMessage(ctx, ch,
		fmt.Sprintf("➕ <@%s> was added to the ticket by <@%s>.", target, actor)); err != nil {
		_ = errutil.Handle(ctx, err, "failed to announce participant add")
	}
	return nil
}

// RemoveParticipant revokes a participant's access to an open ticket.
// The owner cannot be removed.
func (uc *UseCases) RemoveParticipant(ctx context.Context, ch types.ChannelID, actor, target types.UserID, isStaff bool) error {
	ticket, err := uc.GetTicket(ctx, ch)
	if err != nil {
		return err
	}

	if ticket.Closed {
		return goerr.Wrap(ErrAlreadyClosed, "cannot modify a closed ticket",
			goerr.V("channel_id", ch))
	}
	if !isStaff && actor != ticket.Owner {
		return goerr.Wrap(ErrPermissionDenied, "only staff or the owner can remove users",
			goerr.V("channel_id", ch), goerr.V("user_id", actor))
	}
	if target == ticket.Owner {
		return goerr.Wrap(ErrCannotRemoveOwner, "owner stays on their own ticket",
			goerr.V("channel_id", ch))
	}
	if !ticket.IsParticipant(target) {
		return goerr.Wrap(ErrNotAParticipant, "user was never added",
			goerr.V("channel_id", ch), goerr.V("user_id", target))
	}

	if err := uc.repo.Ticket().RemoveParticipant(ctx, ch, target); err != nil {
		return goerr.Wrap(err, "failed to remove participant", goerr.V("channel_id", ch))
	}

	if err := uc.chatSvc.RevokeAccess(ctx, ch, target); err != nil {
		_ = errutil.Handle(ctx, err, "failed to revoke channel access")
	}

	if _, err := uc.chatSvc.PostMessage(ctx, ch,
		fmt.Sprintf("➖ <@%s> was removed from the ticket by <@%s>.", target, actor)); err != nil {
		_ = errutil.Handle(ctx, err, "failed to announce participant removal")
	}
	return nil
}

// TrackActivity records an observed message: upserts the author into
// the users table and bumps the ticket's last_activity when the channel
// belongs to a ticket. Messages in other channels only update the user.
func (uc *UseCases) TrackActivity(ctx context.Context, ch types.ChannelID, author types.UserID, displayName string, at time.Time) error {
	if err := uc.repo.User().Put(ctx, &model.User{
		ID:          author,
		DisplayName: displayName,
		LastSeen:    at.UTC(),
	}); err != nil {
		return goerr.Wrap(err, "failed to upsert user", goerr.V("user_id", author))
	}

	if err := uc.repo.Ticket().BumpActivity(ctx, ch, at.UTC()); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil
		}
		return goerr.Wrap(err, "failed to bump ticket activity", goerr.V("channel_id", ch))
	}
	return nil
}

// CloseInactiveTickets is the inactivity sweep body: closes every open
// ticket idle for longer than the threshold, as the bot identity with
// an inactivity reason. Per-ticket failures are logged and skipped so
// one bad ticket never stalls the rest.
func (uc *UseCases) CloseInactiveTickets(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := uc.now().UTC().Add(-threshold)

	stale, err := uc.repo.Ticket().ListOpenInactiveSince(ctx, cutoff)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list inactive tickets")
	}

	bot := uc.chatSvc.BotUserID()
	closed := 0
	for _, ticket := range stale {
		reason := fmt.Sprintf("Automatically closed after %d days of inactivity",
			int(threshold.Hours())/24)
		if _, err := uc.CloseTicket(ctx, ticket.ChannelID, bot, true, reason); err != nil {
			if errors.Is(err, ErrAlreadyClosed) || errors.Is(err, ErrNotATicketChannel) {
				continue
			}
			_ = errutil.Handle(ctx, err, "inactivity close failed, skipping ticket")
			continue
		}
		closed++
	}
	return closed, nil
}

// DeleteExpiredArchives is the deletion sweep body: for every archived
// ticket past its retention it deletes the channel (tolerating absence)
// and removes the ticket and schedule rows. Transcript rows are kept as
// the audit trail.
func (uc *UseCases) DeleteExpiredArchives(ctx context.Context) (int, error) {
	due, err := uc.repo.Archive().ListDue(ctx, uc.now().UTC())
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list due archives")
	}

	deleted := 0
	for _, a := range due {
		if err := uc.chatSvc.DeleteChannel(ctx, a.ChannelID); err != nil {
			if !errors.Is(err, chat.ErrChannelNotFound) {
				_ = errutil.Handle(ctx, err, "channel deletion failed, skipping archive")
				continue
			}
		}

		if err := uc.repo.Ticket().Delete(ctx, a.ChannelID); err != nil {
			if !errors.Is(err, interfaces.ErrNotFound) {
				_ = errutil.Handle(ctx, err, "ticket row deletion failed, skipping archive")
				continue
			}
		}

		if err := uc.repo.Archive().Delete(ctx, a.ChannelID); err != nil {
			if !errors.Is(err, interfaces.ErrNotFound) {
				_ = errutil.Handle(ctx, err, "archive row deletion failed")
				continue
			}
		}
		deleted++
	}
	return deleted, nil
}

func (uc *UseCases) bumpStat(ctx context.Context, kind model.StatKind) {
	date := model.StatDate(uc.now().UTC().Format("2006-01-02"))
	if err := uc.repo.Stats().Increment(ctx, date, kind); err != nil {
		_ = errutil.Handle(ctx, err, "failed to increment daily stat")
	}
}
