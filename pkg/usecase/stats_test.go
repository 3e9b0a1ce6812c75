package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

func TestGetStatsOverview(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
	gt.NoError(t, err).Required()
	_, err = env.uc.CreateTicket(ctx, "U2", "other")
	gt.NoError(t, err).Required()

	_, err = env.uc.ClaimTicket(ctx, first.ChannelID, "S1", true)
	gt.NoError(t, err).Required()
	_, err = env.uc.CloseTicket(ctx, first.ChannelID, "S1", true, "done")
	gt.NoError(t, err).Required()

	overview, err := env.uc.GetStatsOverview(ctx)
	gt.NoError(t, err).Required()

	gt.Value(t, overview.Today.Opened).Equal(int64(2))
	gt.Value(t, overview.Today.Claimed).Equal(int64(1))
	gt.Value(t, overview.Today.Closed).Equal(int64(1))
	gt.Value(t, overview.AllTime).Equal(overview.Today)
	gt.Value(t, overview.Today.CloseRate()).Equal(float64(50))

	gt.Array(t, overview.Recent).Length(1)
	gt.Array(t, overview.TopStaff).Length(1)
	gt.Value(t, overview.TopStaff[0].Staff).Equal(types.UserID("S1"))
	gt.Value(t, overview.TopStaff[0].Claims).Equal(1)
}

func TestGetUserStats(t *testing.T) {
	ctx := context.Background()

	t.Run("counts owned tickets on both sides of the close", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()
		_, err = env.uc.CloseTicket(ctx, first.ChannelID, "U1", false, "done")
		gt.NoError(t, err).Required()
		_, err = env.uc.CreateTicket(ctx, "U1", "other")
		gt.NoError(t, err).Required()

		stats, err := env.uc.GetUserStats(ctx, "U1")
		gt.NoError(t, err).Required()
		gt.Value(t, stats.Created).Equal(2)
		gt.Value(t, stats.Open).Equal(1)
		gt.Value(t, stats.Closed).Equal(1)
		gt.Value(t, stats.Claimed).Equal(0)
	})

	t.Run("averages handling time over claimed closed tickets", func(t *testing.T) {
		env := newTestEnv(t)

		ticket, err := env.uc.CreateTicket(ctx, "U1", "reportBug")
		gt.NoError(t, err).Required()
		_, err = env.uc.ClaimTicket(ctx, ticket.ChannelID, "S1", true)
		gt.NoError(t, err).Required()

		env.advance(6 * time.Hour)
		_, err = env.uc.CloseTicket(ctx, ticket.ChannelID, "S1", true, "done")
		gt.NoError(t, err).Required()

		stats, err := env.uc.GetUserStats(ctx, "S1")
		gt.NoError(t, err).Required()
		gt.Value(t, stats.Claimed).Equal(1)
		gt.Value(t, stats.AvgHandlingHours).Equal(float64(6))
	})
}
