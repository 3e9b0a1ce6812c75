package cli

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/lunar-city/ticketbot/pkg/cli/config"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat/mock"
	"github.com/lunar-city/ticketbot/pkg/usecase"
	"github.com/lunar-city/ticketbot/pkg/utils/logging"
)

func cmdSetup() *cli.Command {
	var repoCfg config.Repository
	var ticketCfg config.Ticket
	var slackCfg config.Slack
	var channelID string

	flags := append(repoCfg.Flags(), ticketCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, &cli.StringFlag{
		Name:        "channel",
		Usage:       "Channel ID to publish the ticket-creation entry point in",
		Required:    true,
		Destination: &channelID,
	})

	return &cli.Command{
		Name:  "setup",
		Usage: "Publish the ticket-creation entry point in a channel",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := ticketCfg.Load(); err != nil {
				return goerr.Wrap(err, "failed to load application config")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() { _ = repo.Close() }()

			chatSvc, err := slackCfg.Configure(ticketCfg.ChatCategories(), ticketCfg.StaffUsers())
			if err != nil {
				return goerr.Wrap(err, "failed to initialize slack service")
			}

			uc := usecase.New(repo, chatSvc, ticketCfg.ChatCategories())
			setup, err := uc.PublishSetup(ctx, types.ChannelID(channelID))
			if err != nil {
				return goerr.Wrap(err, "failed to publish setup message")
			}

			logging.Default().Info("setup message published",
				"channel_id", setup.ChannelID, "message_id", setup.MessageID)
			return nil
		},
	}
}

func cmdWipe() *cli.Command {
	var repoCfg config.Repository
	var force bool

	flags := append(repoCfg.Flags(),
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "Confirm wiping all ticket data",
			Destination: &force,
		},
	)

	return &cli.Command{
		Name:  "wipe",
		Usage: "Delete all ticket data from the store",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !force {
				return goerr.New("wipe is destructive, re-run with --force to confirm")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() { _ = repo.Close() }()

			if err := repo.Wipe(ctx); err != nil {
				return goerr.Wrap(err, "failed to wipe ticket data")
			}

			logging.Default().Info("all ticket data wiped")
			return nil
		},
	}
}

func cmdRemap() *cli.Command {
	var repoCfg config.Repository
	var ticketCfg config.Ticket
	var mappings []string

	flags := append(repoCfg.Flags(), ticketCfg.Flags()...)
	flags = append(flags, &cli.StringSliceFlag{
		Name:        "map",
		Usage:       "Category mapping as old=new (repeatable)",
		Required:    true,
		Destination: &mappings,
	})

	return &cli.Command{
		Name:  "remap",
		Usage: "Bulk-remap legacy category IDs on existing tickets",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := ticketCfg.Load(); err != nil {
				return goerr.Wrap(err, "failed to load application config")
			}

			mapping := map[types.CategoryID]types.CategoryID{}
			for _, m := range mappings {
				old, next, ok := strings.Cut(m, "=")
				if !ok || old == "" || next == "" {
					return goerr.New("mapping must be old=new", goerr.V("mapping", m))
				}
				if err := types.CategoryID(next).Validate(); err != nil {
					return goerr.Wrap(err, "invalid target category", goerr.V("mapping", m))
				}
				mapping[types.CategoryID(old)] = types.CategoryID(next)
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() { _ = repo.Close() }()

			uc := usecase.New(repo, mock.New(), ticketCfg.ChatCategories())
			changed, err := uc.RemapCategories(ctx, mapping)
			if err != nil {
				return goerr.Wrap(err, "category remap failed")
			}

			logging.Default().Info("category remap finished", "changed", changed)
			return nil
		},
	}
}
