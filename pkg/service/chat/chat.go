package chat

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// Sentinel errors the implementations map platform failures to. The
// registry and sweepers use these to distinguish "already gone" from a
// real failure.
var (
	ErrChannelNotFound = goerr.New("channel not found")
	ErrMessageNotFound = goerr.New("message not found")
	ErrUserUnreachable = goerr.New("user unreachable")
)

// Message is one channel message as seen in a transcript export.
type Message struct {
	ID          types.MessageID
	Author      types.UserID
	AuthorName  string
	Text        string
	Timestamp   time.Time
	Attachments []string
	// Interactive reports whether the message still carries its
	// interactive components. Platforms drop them on resets.
	Interactive bool
}

// Member is a chat-platform user profile.
type Member struct {
	ID          types.UserID
	DisplayName string
	IsBot       bool
}

// Category is a configured ticket category rendered in the entry-point
// menu and used for channel grouping.
type Category struct {
	ID    types.CategoryID
	Name  string
	Emoji string
}

// Service is the chat-platform boundary. The registry speaks only this
// interface; everything platform-specific lives behind it.
type Service interface {
	// EnsureContainer creates the named channel grouping container if it
	// does not exist and returns its ID. Create-if-absent, exactly once.
	EnsureContainer(ctx context.Context, name string) (types.ContainerID, error)

	// CreateChannel creates a channel in the container, visible only to
	// the owner and staff.
	CreateChannel(ctx context.Context, name string, container types.ContainerID, topic string, owner types.UserID) (types.ChannelID, error)

	// GrantAccess makes the channel visible to the user.
	GrantAccess(ctx context.Context, ch types.ChannelID, user types.UserID) error

	// RevokeAccess removes the user's visibility of the channel.
	RevokeAccess(ctx context.Context, ch types.ChannelID, user types.UserID) error

	// MoveToContainer moves the channel into the container and strips
	// default visibility.
	MoveToContainer(ctx context.Context, ch types.ChannelID, container types.ContainerID) error

	// DeleteChannel removes the channel. Returns ErrChannelNotFound when
	// it is already gone.
	DeleteChannel(ctx context.Context, ch types.ChannelID) error

	// PostMessage sends a plain message to the channel.
	PostMessage(ctx context.Context, ch types.ChannelID, text string) (types.MessageID, error)

	// PostWelcome sends the pinned control message for a new ticket.
	PostWelcome(ctx context.Context, ch types.ChannelID, ticket *model.Ticket) (types.MessageID, error)

	// PinMessage pins a message in its channel.
	PinMessage(ctx context.Context, ch types.ChannelID, msg types.MessageID) error

	// DirectMessage sends a best-effort DM. Returns ErrUserUnreachable
	// when the platform refuses delivery.
	DirectMessage(ctx context.Context, user types.UserID, text string) error

	// DeleteMessage removes a message, tolerating absence.
	DeleteMessage(ctx context.Context, ch types.ChannelID, msg types.MessageID) error

	// History returns the channel's full message history, oldest first.
	History(ctx context.Context, ch types.ChannelID) ([]Message, error)

	// GetMessage fetches a single message, for reconciliation.
	GetMessage(ctx context.Context, ch types.ChannelID, msg types.MessageID) (*Message, error)

	// PublishSetupMenu posts the ticket-creation entry-point message with
	// the category menu attached.
	PublishSetupMenu(ctx context.Context, ch types.ChannelID) (types.MessageID, error)

	// AttachSetupMenu re-attaches the category menu to an existing
	// entry-point message that lost its interactive components.
	AttachSetupMenu(ctx context.Context, ch types.ChannelID, msg types.MessageID) error

	// GetMember fetches a user profile.
	GetMember(ctx context.Context, user types.UserID) (*Member, error)

	// BotUserID returns the bot's own identity, used as the closer for
	// sweep-triggered closes.
	BotUserID() types.UserID
}
