package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack/slackevents"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
	"github.com/lunar-city/ticketbot/pkg/service/prompt"
	"github.com/lunar-city/ticketbot/pkg/usecase"
	"github.com/lunar-city/ticketbot/pkg/utils/async"
	"github.com/lunar-city/ticketbot/pkg/utils/errutil"
	"github.com/lunar-city/ticketbot/pkg/utils/logging"
)

// StaffChecker reports whether a user holds the staff capability. The
// registry never resolves roles itself; it takes the boolean this
// computes.
type StaffChecker func(user types.UserID) bool

// SlackWebhookHandler handles Slack Events API webhook requests.
type SlackWebhookHandler struct {
	uc      *usecase.UseCases
	chatSvc chat.Service
	prompts *prompt.Registry
}

func NewSlackWebhookHandler(uc *usecase.UseCases, chatSvc chat.Service, prompts *prompt.Registry) *SlackWebhookHandler {
	return &SlackWebhookHandler{
		uc:      uc,
		chatSvc: chatSvc,
		prompts: prompts,
	}
}

func (h *SlackWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slack event"), http.StatusBadRequest)
		return
	}

	switch eventsAPIEvent.Type {
	case slackevents.URLVerification:
		var challenge *slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal challenge"), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(challenge.Challenge)); err != nil {
			logging.From(ctx).Error("failed to write challenge response", "error", err)
		}
		return

	case slackevents.CallbackEvent:
		// Return 200 immediately to satisfy Slack's 3-second timeout
		w.WriteHeader(http.StatusOK)

		async.Dispatch(ctx, func(ctx context.Context) error {
			return h.handleCallback(ctx, &eventsAPIEvent)
		})

	default:
		logging.From(ctx).Warn("unknown slack event type", "type", eventsAPIEvent.Type)
		w.WriteHeader(http.StatusOK)
	}
}

func (h *SlackWebhookHandler) handleCallback(ctx context.Context, event *slackevents.EventsAPIEvent) error {
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		return h.handleMessage(ctx, ev)
	default:
		return nil
	}
}

// handleMessage feeds observed messages into pending prompts and the
// activity tracker. Bot and edited messages are ignored.
func (h *SlackWebhookHandler) handleMessage(ctx context.Context, ev *slackevents.MessageEvent) error {
	if ev.BotID != "" || ev.User == "" || ev.SubType != "" {
		return nil
	}

	ch := types.ChannelID(ev.Channel)
	author := types.UserID(ev.User)

	if h.prompts.Resolve(ch, author, ev.Text) {
		return nil
	}

	displayName := ""
	if member, err := h.chatSvc.GetMember(ctx, author); err == nil {
		displayName = member.DisplayName
	}

	if err := h.uc.TrackActivity(ctx, ch, author, displayName, time.Now()); err != nil {
		return goerr.Wrap(err, "failed to track activity",
			goerr.V("channel_id", ch), goerr.V("user_id", author))
	}
	return nil
}
