package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
)

const transcriptTimeLayout = "2006-01-02 15:04:05"

// BuildTranscript renders the ticket's channel history as plain text:
// a header block followed by one line per message, oldest first, with
// attachment filenames appended when present.
func (uc *UseCases) BuildTranscript(ctx context.Context, ticket *model.Ticket, closer types.UserID, closedAt time.Time) (string, error) {
	history, err := uc.chatSvc.History(ctx, ticket.ChannelID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch channel history",
			goerr.V("channel_id", ticket.ChannelID))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ticket ID: %s\n", ticket.TicketID)
	fmt.Fprintf(&b, "Created by: %s\n", uc.displayName(ctx, ticket.Owner))
	fmt.Fprintf(&b, "Category: %s\n", ticket.Category)
	fmt.Fprintf(&b, "Created at: %s\n", ticket.CreatedAt.UTC().Format(transcriptTimeLayout))
	fmt.Fprintf(&b, "Closed at: %s\n", closedAt.UTC().Format(transcriptTimeLayout))
	fmt.Fprintf(&b, "Closed by: %s\n", uc.displayName(ctx, closer))
	b.WriteString("\n")

	for _, msg := range history {
		b.WriteString(formatTranscriptLine(&msg, uc.displayName(ctx, msg.Author)))
		b.WriteString("\n")
	}

	return b.String(), nil
}

func formatTranscriptLine(msg *chat.Message, author string) string {
	line := fmt.Sprintf("[%s] %s: %s",
		msg.Timestamp.UTC().Format(transcriptTimeLayout), author, msg.Text)
	if len(msg.Attachments) > 0 {
		line += fmt.Sprintf(" [Attachments: %s]", strings.Join(msg.Attachments, ", "))
	}
	return line
}

// displayName resolves a user ID to the last observed display name,
// falling back to the raw ID for users the bot never saw speak.
func (uc *UseCases) displayName(ctx context.Context, id types.UserID) string {
	u, err := uc.repo.User().Get(ctx, id)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			return id.String()
		}
		if member, merr := uc.chatSvc.GetMember(ctx, id); merr == nil && member.DisplayName != "" {
			return member.DisplayName
		}
		return id.String()
	}
	if u.DisplayName == "" {
		return id.String()
	}
	return u.DisplayName
}
