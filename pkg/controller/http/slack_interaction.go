package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
	slacksvc "github.com/lunar-city/ticketbot/pkg/service/chat/slack"
	"github.com/lunar-city/ticketbot/pkg/service/prompt"
	"github.com/lunar-city/ticketbot/pkg/usecase"
	"github.com/lunar-city/ticketbot/pkg/utils/async"
	"github.com/lunar-city/ticketbot/pkg/utils/errutil"
	"github.com/lunar-city/ticketbot/pkg/utils/logging"
)

// SlackInteractionHandler handles interactive component payloads: the
// category menu and the ticket control buttons.
type SlackInteractionHandler struct {
	uc      *usecase.UseCases
	chatSvc chat.Service
	prompts *prompt.Registry
	isStaff StaffChecker
}

func NewSlackInteractionHandler(uc *usecase.UseCases, chatSvc chat.Service, prompts *prompt.Registry, isStaff StaffChecker) *SlackInteractionHandler {
	return &SlackInteractionHandler{
		uc:      uc,
		chatSvc: chatSvc,
		prompts: prompts,
		isStaff: isStaff,
	}
}

func (h *SlackInteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Slack sends interaction payloads as application/x-www-form-urlencoded
	// with a "payload" field containing JSON
	payload := r.FormValue("payload")
	if payload == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("missing payload field in interaction request"), http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &callback); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse interaction payload"), http.StatusBadRequest)
		return
	}

	if callback.Type != slack.InteractionTypeBlockActions {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)

	user := types.UserID(callback.User.ID)
	channel := types.ChannelID(callback.Channel.ID)

	for _, action := range callback.ActionCallback.BlockActions {
		action := action
		switch action.ActionID {
		case slacksvc.ActionIDCategorySelect:
			category := types.CategoryID(action.SelectedOption.Value)
			async.Dispatch(ctx, func(ctx context.Context) error {
				return h.handleCreate(ctx, user, category)
			})

		case slacksvc.ActionIDClaimTicket:
			async.Dispatch(ctx, func(ctx context.Context) error {
				return h.handleClaim(ctx, channel, user)
			})

		case slacksvc.ActionIDCloseTicket:
			async.Dispatch(ctx, func(ctx context.Context) error {
				return h.handleClose(ctx, channel, user)
			})

		case slacksvc.ActionIDAddUser:
			async.Dispatch(ctx, func(ctx context.Context) error {
				return h.handleMembership(ctx, channel, user, true)
			})

		case slacksvc.ActionIDRemoveUser:
			async.Dispatch(ctx, func(ctx context.Context) error {
				return h.handleMembership(ctx, channel, user, false)
			})

		default:
			logging.From(ctx).Warn("unknown interaction action", "action_id", action.ActionID)
		}
	}
}

func (h *SlackInteractionHandler) handleCreate(ctx context.Context, user types.UserID, category types.CategoryID) error {
	ticket, err := h.uc.CreateTicket(ctx, user, category)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDuplicateOpenTicket):
			h.dm(ctx, user, "You already have an open ticket. Please use your existing ticket channel or close it first.")
			return nil
		case errors.Is(err, usecase.ErrUnknownCategory):
			h.dm(ctx, user, "That ticket category is not available.")
			return nil
		}
		h.dm(ctx, user, "Sorry, creating your ticket failed. Please try again later.")
		return goerr.Wrap(err, "ticket creation failed", goerr.V("user_id", user))
	}

	h.dm(ctx, user, fmt.Sprintf("Your ticket %s has been created: <#%s>", ticket.TicketID, ticket.ChannelID))
	return nil
}

func (h *SlackInteractionHandler) handleClaim(ctx context.Context, ch types.ChannelID, user types.UserID) error {
	_, err := h.uc.ClaimTicket(ctx, ch, user, h.isStaff(user))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPermissionDenied):
			h.post(ctx, ch, fmt.Sprintf("<@%s> Only staff members can claim tickets.", user))
		case errors.Is(err, usecase.ErrAlreadyClaimedBySelf):
			h.post(ctx, ch, fmt.Sprintf("<@%s> You already claimed this ticket.", user))
		case errors.Is(err, usecase.ErrAlreadyClaimedByOther):
			h.post(ctx, ch, fmt.Sprintf("<@%s> This ticket is already claimed by %s.", user, claimantOf(err)))
		case errors.Is(err, usecase.ErrAlreadyClosed), errors.Is(err, usecase.ErrNotATicketChannel):
			h.post(ctx, ch, fmt.Sprintf("<@%s> This ticket can no longer be claimed.", user))
		default:
			return goerr.Wrap(err, "claim failed", goerr.V("channel_id", ch))
		}
	}
	return nil
}

func (h *SlackInteractionHandler) handleClose(ctx context.Context, ch types.ChannelID, user types.UserID) error {
	_, err := h.uc.CloseTicket(ctx, ch, user, h.isStaff(user), "Manually closed")
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPermissionDenied):
			h.post(ctx, ch, fmt.Sprintf("<@%s> Only staff or the ticket owner can close this ticket.", user))
		case errors.Is(err, usecase.ErrAlreadyClosed), errors.Is(err, usecase.ErrNotATicketChannel):
			// A concurrent close won the race; nothing to report.
		default:
			return goerr.Wrap(err, "close failed", goerr.V("channel_id", ch))
		}
	}
	return nil
}

// handleMembership runs the add/remove participant flow: ask the actor
// to mention the target, wait for their next message, then mutate. A
// timeout changes nothing.
func (h *SlackInteractionHandler) handleMembership(ctx context.Context, ch types.ChannelID, actor types.UserID, adding bool) error {
	verb := "remove"
	if adding {
		verb = "add"
	}

	h.post(ctx, ch, fmt.Sprintf("<@%s> Please mention the user you want to %s (you have 60 seconds).", actor, verb))

	answer, err := h.prompts.Wait(ctx, ch, actor)
	if err != nil {
		if errors.Is(err, prompt.ErrTimedOut) {
			h.post(ctx, ch, fmt.Sprintf("<@%s> Timed out waiting for a user mention. Nothing was changed.", actor))
			return nil
		}
		return goerr.Wrap(err, "membership prompt failed", goerr.V("channel_id", ch))
	}

	target, ok := parseUserMention(answer)
	if !ok {
		h.post(ctx, ch, fmt.Sprintf("<@%s> That doesn't look like a user mention. Nothing was changed.", actor))
		return nil
	}

	if adding {
		err = h.uc.AddParticipant(ctx, ch, actor, target, h.isStaff(actor))
	} else {
		err = h.uc.RemoveParticipant(ctx, ch, actor, target, h.isStaff(actor))
	}
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAlreadyHasAccess):
			h.post(ctx, ch, fmt.Sprintf("<@%s> already has access to this ticket.", target))
		case errors.Is(err, usecase.ErrNotAParticipant):
			h.post(ctx, ch, fmt.Sprintf("<@%s> is not a participant of this ticket.", target))
		case errors.Is(err, usecase.ErrCannotRemoveOwner):
			h.post(ctx, ch, "The ticket owner cannot be removed.")
		case errors.Is(err, usecase.ErrPermissionDenied):
			h.post(ctx, ch, fmt.Sprintf("<@%s> Only staff or the ticket owner can manage participants.", actor))
		case errors.Is(err, usecase.ErrAlreadyClosed), errors.Is(err, usecase.ErrNotATicketChannel):
			h.post(ctx, ch, "This ticket can no longer be modified.")
		default:
			return goerr.Wrap(err, "membership change failed", goerr.V("channel_id", ch))
		}
	}
	return nil
}

var userMentionRe = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]*)?>`)

// parseUserMention extracts the user ID from a "<@U123ABC>" mention.
func parseUserMention(text string) (types.UserID, bool) {
	m := userMentionRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return types.UserID(m[1]), true
}

// claimantOf pulls the claimant out of an ErrAlreadyClaimedByOther.
func claimantOf(err error) string {
	var ge *goerr.Error
	if errors.As(err, &ge) {
		if v, ok := ge.Values()[usecase.KeyClaimedBy]; ok {
			return fmt.Sprintf("<@%v>", v)
		}
	}
	return "another staff member"
}

func (h *SlackInteractionHandler) post(ctx context.Context, ch types.ChannelID, text string) {
	if _, err := h.chatSvc.PostMessage(ctx, ch, text); err != nil {
		logging.From(ctx).Warn("failed to post feedback message",
			"channel_id", ch, "error", err)
	}
}

func (h *SlackInteractionHandler) dm(ctx context.Context, user types.UserID, text string) {
	if err := h.chatSvc.DirectMessage(ctx, user, text); err != nil {
		logging.From(ctx).Warn("failed to DM feedback message",
			"user_id", user, "error", err)
	}
}
