package slack

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
)

// Interaction identifiers shared with the webhook controller.
const (
	ActionIDCategorySelect = "ticket_category_select"
	ActionIDCloseTicket    = "close_ticket"
	ActionIDClaimTicket    = "claim_ticket"
	ActionIDAddUser        = "add_user"
	ActionIDRemoveUser     = "remove_user"
)

const historyPageSize = 200

// client implements chat.Service on the Slack API.
//
// Slack has no channel-grouping API, so containers map to channel name
// prefixes: moving a channel to a container renames it and archives it,
// and channel deletion degrades to archiving (Slack offers no bot-level
// hard delete).
type client struct {
	api        *slack.Client
	categories []chat.Category
	staff      []types.UserID

	botOnce sync.Once
	botID   types.UserID
}

var _ chat.Service = &client{}

type Option func(*client)

// WithStaff sets the staff user IDs invited to every ticket channel.
func WithStaff(staff []types.UserID) Option {
	return func(c *client) {
		c.staff = staff
	}
}

// New creates a Slack-backed chat service with the provided bot token.
func New(token string, categories []chat.Category, opts ...Option) (chat.Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if len(categories) == 0 {
		return nil, goerr.New("at least one ticket category is required")
	}

	c := &client{
		api:        slack.New(token),
		categories: categories,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) EnsureContainer(ctx context.Context, name string) (types.ContainerID, error) {
	normalized := NormalizeChannelName(name)
	if normalized == "" {
		return "", goerr.New("container name normalizes to empty", goerr.V("name", name))
	}
	return types.ContainerID(normalized), nil
}

func (c *client) CreateChannel(ctx context.Context, name string, container types.ContainerID, topic string, owner types.UserID) (types.ChannelID, error) {
	conv, err := c.api.CreateConversationContext(ctx, slack.CreateConversationParams{
		ChannelName: ticketChannelName(container.String(), name),
		IsPrivate:   true,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create conversation", goerr.V("name", name))
	}

	if topic != "" {
		if _, err := c.api.SetTopicOfConversationContext(ctx, conv.ID, topic); err != nil {
			return "", goerr.Wrap(err, "failed to set conversation topic", goerr.V("channel_id", conv.ID))
		}
	}

	invitees := make([]string, 0, len(c.staff)+1)
	invitees = append(invitees, owner.String())
	for _, s := range c.staff {
		if s != owner {
			invitees = append(invitees, s.String())
		}
	}
	if _, err := c.api.InviteUsersToConversationContext(ctx, conv.ID, invitees...); err != nil {
		// already_in_channel happens when the owner is a staff member
		if !isSlackError(err, "already_in_channel") {
			return "", goerr.Wrap(err, "failed to invite users to conversation",
				goerr.V("channel_id", conv.ID))
		}
	}

	return types.ChannelID(conv.ID), nil
}

func (c *client) GrantAccess(ctx context.Context, ch types.ChannelID, user types.UserID) error {
	if _, err := c.api.InviteUsersToConversationContext(ctx, ch.String(), user.String()); err != nil {
		if isSlackError(err, "already_in_channel") {
			return nil
		}
		return c.mapChannelError(err, ch, "failed to invite user")
	}
	return nil
}

func (c *client) RevokeAccess(ctx context.Context, ch types.ChannelID, user types.UserID) error {
	if err := c.api.KickUserFromConversationContext(ctx, ch.String(), user.String()); err != nil {
		if isSlackError(err, "not_in_channel") {
			return nil
		}
		return c.mapChannelError(err, ch, "failed to kick user")
	}
	return nil
}

func (c *client) MoveToContainer(ctx context.Context, ch types.ChannelID, container types.ContainerID) error {
	info, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: ch.String(),
	})
	if err != nil {
		return c.mapChannelError(err, ch, "failed to get conversation info")
	}

	newName := retagChannelName(container.String(), info.Name)
	if newName != info.Name {
		if _, err := c.api.RenameConversationContext(ctx, ch.String(), newName); err != nil {
			return c.mapChannelError(err, ch, "failed to rename conversation")
		}
	}

	if err := c.api.ArchiveConversationContext(ctx, ch.String()); err != nil {
		if !isSlackError(err, "already_archived") {
			return c.mapChannelError(err, ch, "failed to archive conversation")
		}
	}
	return nil
}

func (c *client) DeleteChannel(ctx context.Context, ch types.ChannelID) error {
	if err := c.api.ArchiveConversationContext(ctx, ch.String()); err != nil {
		if isSlackError(err, "already_archived") {
			return nil
		}
		return c.mapChannelError(err, ch, "failed to archive conversation")
	}
	return nil
}

func (c *client) PostMessage(ctx context.Context, ch types.ChannelID, text string) (types.MessageID, error) {
	_, ts, err := c.api.PostMessageContext(ctx, ch.String(), slack.MsgOptionText(text, false))
	if err != nil {
		return "", c.mapChannelError(err, ch, "failed to post message")
	}
	return types.MessageID(ts), nil
}

func (c *client) PostWelcome(ctx context.Context, ch types.ChannelID, ticket *model.Ticket) (types.MessageID, error) {
	category := ticket.Category.String()
	for _, cat := range c.categories {
		if cat.ID == ticket.Category {
			category = fmt.Sprintf("%s %s", cat.Emoji, cat.Name)
			break
		}
	}

	header := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("Thank you for creating a ticket, <@%s>!\n\n*Ticket ID:* %s\n*Category:* %s\nSupport staff will be with you shortly. Please describe your issue in detail here.",
				ticket.Owner, ticket.TicketID, category),
			false, false),
		nil, nil,
	)

	controls := slack.NewActionBlock("ticket_controls",
		slack.NewButtonBlockElement(ActionIDCloseTicket, ticket.ChannelID.String(),
			slack.NewTextBlockObject(slack.PlainTextType, "Close Ticket", false, false)).
			WithStyle(slack.StyleDanger),
		slack.NewButtonBlockElement(ActionIDClaimTicket, ticket.ChannelID.String(),
			slack.NewTextBlockObject(slack.PlainTextType, "Claim Ticket", false, false)).
			WithStyle(slack.StylePrimary),
		slack.NewButtonBlockElement(ActionIDAddUser, ticket.ChannelID.String(),
			slack.NewTextBlockObject(slack.PlainTextType, "Add User", false, false)),
		slack.NewButtonBlockElement(ActionIDRemoveUser, ticket.ChannelID.String(),
			slack.NewTextBlockObject(slack.PlainTextType, "Remove User", false, false)),
	)

	_, ts, err := c.api.PostMessageContext(ctx, ch.String(),
		slack.MsgOptionBlocks(header, controls),
		slack.MsgOptionText(fmt.Sprintf("Ticket %s created", ticket.TicketID), false),
	)
	if err != nil {
		return "", c.mapChannelError(err, ch, "failed to post welcome message")
	}
	return types.MessageID(ts), nil
}

func (c *client) PinMessage(ctx context.Context, ch types.ChannelID, msg types.MessageID) error {
	ref := slack.ItemRef{Channel: ch.String(), Timestamp: msg.String()}
	if err := c.api.AddPinContext(ctx, ch.String(), ref); err != nil {
		if isSlackError(err, "already_pinned") {
			return nil
		}
		return c.mapChannelError(err, ch, "failed to pin message")
	}
	return nil
}

func (c *client) DirectMessage(ctx context.Context, user types.UserID, text string) error {
	conv, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{user.String()},
	})
	if err != nil {
		return goerr.Wrap(chat.ErrUserUnreachable, "failed to open DM conversation",
			goerr.V("user_id", user), goerr.V("cause", err.Error()))
	}

	if _, _, err := c.api.PostMessageContext(ctx, conv.ID, slack.MsgOptionText(text, false)); err != nil {
		return goerr.Wrap(chat.ErrUserUnreachable, "failed to send DM",
			goerr.V("user_id", user), goerr.V("cause", err.Error()))
	}
	return nil
}

func (c *client) DeleteMessage(ctx context.Context, ch types.ChannelID, msg types.MessageID) error {
	if _, _, err := c.api.DeleteMessageContext(ctx, ch.String(), msg.String()); err != nil {
		if isSlackError(err, "message_not_found") {
			return goerr.Wrap(chat.ErrMessageNotFound, "message already deleted",
				goerr.V("channel_id", ch), goerr.V("message_id", msg))
		}
		return c.mapChannelError(err, ch, "failed to delete message")
	}
	return nil
}

func (c *client) History(ctx context.Context, ch types.ChannelID) ([]chat.Message, error) {
	var collected []slack.Message
	cursor := ""
	for {
		resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: ch.String(),
			Limit:     historyPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, c.mapChannelError(err, ch, "failed to get conversation history")
		}

		collected = append(collected, resp.Messages...)
		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = resp.ResponseMetaData.NextCursor
	}

	// Slack returns newest first; the transcript wants oldest first.
	messages := make([]chat.Message, 0, len(collected))
	for i := len(collected) - 1; i >= 0; i-- {
		messages = append(messages, toChatMessage(&collected[i]))
	}
	return messages, nil
}

func (c *client) GetMessage(ctx context.Context, ch types.ChannelID, msg types.MessageID) (*chat.Message, error) {
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: ch.String(),
		Latest:    msg.String(),
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return nil, c.mapChannelError(err, ch, "failed to fetch message")
	}

	if len(resp.Messages) == 0 || resp.Messages[0].Timestamp != msg.String() {
		return nil, goerr.Wrap(chat.ErrMessageNotFound, "message not found",
			goerr.V("channel_id", ch), goerr.V("message_id", msg))
	}

	converted := toChatMessage(&resp.Messages[0])
	return &converted, nil
}

func (c *client) PublishSetupMenu(ctx context.Context, ch types.ChannelID) (types.MessageID, error) {
	_, ts, err := c.api.PostMessageContext(ctx, ch.String(),
		slack.MsgOptionBlocks(c.setupBlocks()...),
		slack.MsgOptionText("Create a support ticket", false),
	)
	if err != nil {
		return "", c.mapChannelError(err, ch, "failed to publish setup menu")
	}
	return types.MessageID(ts), nil
}

func (c *client) AttachSetupMenu(ctx context.Context, ch types.ChannelID, msg types.MessageID) error {
	_, _, _, err := c.api.UpdateMessageContext(ctx, ch.String(), msg.String(),
		slack.MsgOptionBlocks(c.setupBlocks()...),
		slack.MsgOptionText("Create a support ticket", false),
	)
	if err != nil {
		if isSlackError(err, "message_not_found") {
			return goerr.Wrap(chat.ErrMessageNotFound, "setup message is gone",
				goerr.V("channel_id", ch), goerr.V("message_id", msg))
		}
		return c.mapChannelError(err, ch, "failed to attach setup menu")
	}
	return nil
}

func (c *client) setupBlocks() []slack.Block {
	options := make([]*slack.OptionBlockObject, 0, len(c.categories))
	for _, cat := range c.categories {
		label := fmt.Sprintf("%s %s", cat.Emoji, cat.Name)
		options = append(options, slack.NewOptionBlockObject(
			cat.ID.String(),
			slack.NewTextBlockObject(slack.PlainTextType, label, true, false),
			nil,
		))
	}

	menu := slack.NewOptionsSelectBlockElement(
		slack.OptTypeStatic,
		slack.NewTextBlockObject(slack.PlainTextType, "Select the type of ticket you want to create...", false, false),
		ActionIDCategorySelect,
		options...,
	)

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				"*Support*\nTo create a ticket, pick the appropriate category below.",
				false, false),
			nil, nil,
		),
		slack.NewActionBlock("ticket_setup", menu),
	}
}

func (c *client) GetMember(ctx context.Context, user types.UserID) (*chat.Member, error) {
	info, err := c.api.GetUserInfoContext(ctx, user.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user info", goerr.V("user_id", user))
	}

	name := info.Profile.DisplayName
	if name == "" {
		name = info.RealName
	}
	if name == "" {
		name = info.Name
	}

	return &chat.Member{
		ID:          types.UserID(info.ID),
		DisplayName: name,
		IsBot:       info.IsBot,
	}, nil
}

func (c *client) BotUserID() types.UserID {
	c.botOnce.Do(func() {
		resp, err := c.api.AuthTest()
		if err == nil {
			c.botID = types.UserID(resp.UserID)
		}
	})
	return c.botID
}

func (c *client) mapChannelError(err error, ch types.ChannelID, msg string) error {
	if isSlackError(err, "channel_not_found") || isSlackError(err, "is_archived") {
		return goerr.Wrap(chat.ErrChannelNotFound, msg,
			goerr.V("channel_id", ch), goerr.V("cause", err.Error()))
	}
	return goerr.Wrap(err, msg, goerr.V("channel_id", ch))
}

// isSlackError matches the Slack API's string error codes.
func isSlackError(err error, code string) bool {
	return err != nil && strings.Contains(err.Error(), code)
}

func toChatMessage(msg *slack.Message) chat.Message {
	attachments := make([]string, 0, len(msg.Files))
	for _, f := range msg.Files {
		attachments = append(attachments, f.Name)
	}

	interactive := false
	for _, b := range msg.Blocks.BlockSet {
		if b.BlockType() == slack.MBTAction {
			interactive = true
			break
		}
	}

	return chat.Message{
		ID:          types.MessageID(msg.Timestamp),
		Author:      types.UserID(msg.User),
		AuthorName:  msg.Username,
		Text:        msg.Text,
		Timestamp:   parseSlackTimestamp(msg.Timestamp),
		Attachments: attachments,
		Interactive: interactive,
	}
}

// parseSlackTimestamp converts a "1712345678.000100" message timestamp.
func parseSlackTimestamp(ts string) time.Time {
	parts := strings.SplitN(ts, ".", 2)
	sec, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}
	}
	var nsec int64
	if len(parts) == 2 {
		if frac, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			for i := len(parts[1]); i < 9; i++ {
				frac *= 10
			}
			nsec = frac
		}
	}
	return time.Unix(sec, nsec).UTC()
}
