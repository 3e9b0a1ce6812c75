package config

import (
	"context"
	"log/slog"

	slackapi "github.com/slack-go/slack"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
	slacksvc "github.com/lunar-city/ticketbot/pkg/service/chat/slack"
)

// Slack holds CLI flags for the Slack connection
type Slack struct {
	botToken      string
	signingSecret string
	staffGroupID  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token",
			Category:    "Slack",
			Sources:     cli.EnvVars("TICKETBOT_SLACK_BOT_TOKEN"),
			Destination: &x.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for webhook verification)",
			Category:    "Slack",
			Sources:     cli.EnvVars("TICKETBOT_SLACK_SIGNING_SECRET"),
			Destination: &x.signingSecret,
		},
		&cli.StringFlag{
			Name:        "slack-staff-group",
			Usage:       "Slack user group ID whose members get the staff capability",
			Category:    "Slack",
			Sources:     cli.EnvVars("TICKETBOT_SLACK_STAFF_GROUP"),
			Destination: &x.staffGroupID,
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
		slog.String("staff-group", x.staffGroupID),
	)
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// IsConfigured checks if the Slack connection is configured
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.signingSecret != ""
}

// Configure creates the Slack chat service with the configured
// categories and staff list.
func (x *Slack) Configure(categories []chat.Category, staff []types.UserID) (chat.Service, error) {
	if x.botToken == "" {
		return nil, goerr.New("slack-bot-token is required")
	}
	return slacksvc.New(x.botToken, categories, slacksvc.WithStaff(staff))
}

// ResolveStaffGroup expands the configured Slack user group into user
// IDs, merged with the statically configured staff list at startup.
func (x *Slack) ResolveStaffGroup(ctx context.Context) ([]types.UserID, error) {
	if x.staffGroupID == "" {
		return nil, nil
	}
	if x.botToken == "" {
		return nil, goerr.New("slack-bot-token is required to resolve the staff group")
	}

	api := slackapi.New(x.botToken)
	members, err := api.GetUserGroupMembersContext(ctx, x.staffGroupID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list staff group members",
			goerr.V("group_id", x.staffGroupID))
	}

	ids := make([]types.UserID, 0, len(members))
	for _, m := range members {
		ids = append(ids, types.UserID(m))
	}
	return ids, nil
}
