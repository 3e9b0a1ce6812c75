package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/lunar-city/ticketbot/pkg/cli/config"
	httpctrl "github.com/lunar-city/ticketbot/pkg/controller/http"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/prompt"
	"github.com/lunar-city/ticketbot/pkg/service/worker"
	"github.com/lunar-city/ticketbot/pkg/usecase"
	"github.com/lunar-city/ticketbot/pkg/utils/logging"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var ticketCfg config.Ticket
	var repoCfg config.Repository
	var slackCfg config.Slack
	var transcriptCfg config.Transcript
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("TICKETBOT_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, ticketCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, transcriptCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the bot: webhook server and lifecycle sweeps",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if err := ticketCfg.Load(); err != nil {
				return goerr.Wrap(err, "failed to load application config")
			}

			sentryCloser, err := sentryCfg.Configure(version)
			if err != nil {
				return goerr.Wrap(err, "failed to configure sentry")
			}
			defer sentryCloser()

			// A store failure here is fatal: the bot must not serve
			// traffic without its source of truth.
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			staff := ticketCfg.StaffUsers()
			groupStaff, err := slackCfg.ResolveStaffGroup(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to resolve staff group")
			}
			staff = append(staff, groupStaff...)
			logger.Info("staff capability configured", "count", len(staff))

			staffSet := make(map[types.UserID]bool, len(staff))
			for _, s := range staff {
				staffSet[s] = true
			}
			isStaff := func(user types.UserID) bool { return staffSet[user] }

			chatSvc, err := slackCfg.Configure(ticketCfg.ChatCategories(), staff)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize slack service")
			}

			uploader, uploaderCloser, err := transcriptCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure transcript backend")
			}
			defer uploaderCloser()

			uc := usecase.New(repo, chatSvc, ticketCfg.ChatCategories(),
				usecase.WithUploader(uploader),
				usecase.WithArchiveRetention(ticketCfg.ArchiveRetention()),
			)

			// Restore entry-point messages before accepting traffic
			if err := uc.ReconcileSetups(ctx); err != nil {
				return goerr.Wrap(err, "failed to reconcile setup messages")
			}

			prompts := prompt.New()
			webhookHandler := httpctrl.NewSlackWebhookHandler(uc, chatSvc, prompts)
			interactionHandler := httpctrl.NewSlackInteractionHandler(uc, chatSvc, prompts, isStaff)

			server := httpctrl.New(
				httpctrl.WithSlackWebhook(webhookHandler, interactionHandler, slackCfg.SigningSecret()),
			)

			inactivityWorker := worker.NewInactivityWorker(uc,
				ticketCfg.InactivityInterval(), ticketCfg.InactiveThreshold())
			archiveWorker := worker.NewArchiveWorker(uc, ticketCfg.ArchiveInterval())

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server,
				ReadHeaderTimeout: 10 * time.Second,
			}

			eg, ctx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				logger.Info("HTTP server starting", "addr", addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "HTTP server failed")
				}
				return nil
			})

			eg.Go(func() error {
				return inactivityWorker.Start(ctx)
			})
			eg.Go(func() error {
				return archiveWorker.Start(ctx)
			})

			eg.Go(func() error {
				<-ctx.Done()
				logger.Info("shutting down")

				inactivityWorker.Stop()
				archiveWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})

			return eg.Wait()
		},
	}
}
