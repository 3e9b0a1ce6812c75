package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/lunar-city/ticketbot/pkg/cli/config"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat/mock"
	"github.com/lunar-city/ticketbot/pkg/usecase"
)

// statsUseCases builds a read-only registry over the configured store.
// The chat service is never called by the stats paths, so the mock
// stands in for it.
func statsUseCases(ctx context.Context, repoCfg *config.Repository, ticketCfg *config.Ticket) (*usecase.UseCases, func(), error) {
	if err := ticketCfg.Load(); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load application config")
	}

	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	uc := usecase.New(repo, mock.New(), ticketCfg.ChatCategories())
	closer := func() { _ = repo.Close() }
	return uc, closer, nil
}

func cmdStats() *cli.Command {
	var repoCfg config.Repository
	var ticketCfg config.Ticket

	flags := append(repoCfg.Flags(), ticketCfg.Flags()...)

	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregate ticket statistics",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := statsUseCases(ctx, &repoCfg, &ticketCfg)
			if err != nil {
				return err
			}
			defer closer()

			overview, err := uc.GetStatsOverview(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to aggregate stats")
			}

			renderOverview(overview)
			return nil
		},
	}
}

func renderOverview(o *usecase.StatsOverview) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgWhite)
	num := color.New(color.FgGreen, color.Bold)

	title.Println("Ticket statistics")
	fmt.Println()

	rows := []struct {
		name string
		w    usecase.StatsWindow
	}{
		{"Today", o.Today},
		{"Last 7 days", o.Week},
		{"Last 30 days", o.Month},
		{"All time", o.AllTime},
	}
	for _, r := range rows {
		label.Printf("  %-14s", r.name)
		num.Printf("opened %-5d closed %-5d claimed %-5d", r.w.Opened, r.w.Closed, r.w.Claimed)
		label.Printf("  close rate %.0f%%\n", r.w.CloseRate())
	}

	if len(o.Recent) > 0 {
		fmt.Println()
		title.Println("Recent activity")
		for _, day := range o.Recent {
			label.Printf("  %s  ", day.Date)
			fmt.Printf("opened %d, closed %d, claimed %d\n", day.Opened, day.Closed, day.Claimed)
		}
	}

	if len(o.TopStaff) > 0 {
		fmt.Println()
		title.Println("Top staff by claims")
		for i, s := range o.TopStaff {
			if i >= 5 {
				break
			}
			label.Printf("  %d. %s  ", i+1, s.Staff)
			num.Printf("%d claims\n", s.Claims)
		}
	}
}

func cmdUserStats() *cli.Command {
	var repoCfg config.Repository
	var ticketCfg config.Ticket
	var userID string

	flags := append(repoCfg.Flags(), ticketCfg.Flags()...)
	flags = append(flags, &cli.StringFlag{
		Name:        "user",
		Usage:       "User ID to report on",
		Required:    true,
		Destination: &userID,
	})

	return &cli.Command{
		Name:  "userstats",
		Usage: "Show one user's ticket statistics",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := statsUseCases(ctx, &repoCfg, &ticketCfg)
			if err != nil {
				return err
			}
			defer closer()

			stats, err := uc.GetUserStats(ctx, types.UserID(userID))
			if err != nil {
				return goerr.Wrap(err, "failed to aggregate user stats")
			}

			title := color.New(color.FgCyan, color.Bold)
			label := color.New(color.FgWhite)

			title.Printf("Stats for %s (%s)\n\n", stats.DisplayName, stats.User)
			label.Printf("  Tickets created: %d (open %d, closed %d)\n",
				stats.Created, stats.Open, stats.Closed)
			if stats.Claimed > 0 {
				label.Printf("  Tickets claimed: %d\n", stats.Claimed)
				label.Printf("  Avg handling time: %.1f hours\n", stats.AvgHandlingHours)
			}
			return nil
		},
	}
}
