package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// StatsWindow sums the daily counters over a date range.
type StatsWindow struct {
	Opened  int64
	Closed  int64
	Claimed int64
}

// CloseRate is closed/opened as a percentage, 0 when nothing opened.
func (w StatsWindow) CloseRate() float64 {
	if w.Opened == 0 {
		return 0
	}
	return float64(w.Closed) / float64(w.Opened) * 100
}

// StaffClaims is one staff member's claim count for the leaderboard.
type StaffClaims struct {
	Staff  types.UserID
	Claims int
}

// StatsOverview is the aggregate report rendered by the stats command.
type StatsOverview struct {
	Today    StatsWindow
	Week     StatsWindow
	Month    StatsWindow
	AllTime  StatsWindow
	Recent   []*model.DailyStats
	TopStaff []StaffClaims
}

const recentStatsDays = 7

// GetStatsOverview aggregates the daily buckets into day/week/month and
// all-time windows, plus the recent per-day series and a staff
// leaderboard computed from the ticket rows.
func (uc *UseCases) GetStatsOverview(ctx context.Context) (*StatsOverview, error) {
	buckets, err := uc.repo.Stats().ListSince(ctx, "")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list stats buckets")
	}

	now := uc.now().UTC()
	today := model.StatDate(now.Format("2006-01-02"))
	weekAgo := model.StatDate(now.AddDate(0, 0, -7).Format("2006-01-02"))
	monthAgo := model.StatDate(now.AddDate(0, -1, 0).Format("2006-01-02"))
	recentCutoff := model.StatDate(now.AddDate(0, 0, -recentStatsDays).Format("2006-01-02"))

	overview := &StatsOverview{}
	for _, b := range buckets {
		add(&overview.AllTime, b)
		if b.Date >= monthAgo {
			add(&overview.Month, b)
		}
		if b.Date >= weekAgo {
			add(&overview.Week, b)
		}
		if b.Date == today {
			add(&overview.Today, b)
		}
		if b.Date >= recentCutoff {
			overview.Recent = append(overview.Recent, b)
		}
	}

	topStaff, err := uc.staffLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	overview.TopStaff = topStaff

	return overview, nil
}

func add(w *StatsWindow, b *model.DailyStats) {
	w.Opened += b.Opened
	w.Closed += b.Closed
	w.Claimed += b.Claimed
}

func (uc *UseCases) staffLeaderboard(ctx context.Context) ([]StaffClaims, error) {
	tickets, err := uc.repo.Ticket().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tickets")
	}

	counts := map[types.UserID]int{}
	for _, t := range tickets {
		if t.ClaimedBy != "" {
			counts[t.ClaimedBy]++
		}
	}

	board := make([]StaffClaims, 0, len(counts))
	for staff, n := range counts {
		board = append(board, StaffClaims{Staff: staff, Claims: n})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Claims != board[j].Claims {
			return board[i].Claims > board[j].Claims
		}
		return board[i].Staff < board[j].Staff
	})
	return board, nil
}

// UserStats is one user's ticket activity from both sides of the desk.
type UserStats struct {
	User        types.UserID
	DisplayName string

	Created int
	Open    int
	Closed  int

	Claimed          int
	AvgHandlingHours float64
}

// GetUserStats reports tickets the user created and, when they acted as
// staff, tickets they claimed with the average open-to-close duration.
func (uc *UseCases) GetUserStats(ctx context.Context, user types.UserID) (*UserStats, error) {
	stats := &UserStats{
		User:        user,
		DisplayName: uc.displayName(ctx, user),
	}

	owned, err := uc.repo.Ticket().ListByOwner(ctx, user)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list owned tickets", goerr.V("user_id", user))
	}
	stats.Created = len(owned)
	for _, t := range owned {
		if t.Closed {
			stats.Closed++
		} else {
			stats.Open++
		}
	}

	all, err := uc.repo.Ticket().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tickets")
	}

	var handled time.Duration
	var handledCount int
	for _, t := range all {
		if t.ClaimedBy != user {
			continue
		}
		stats.Claimed++

		if !t.Closed {
			continue
		}
		tr, err := uc.repo.Transcript().Get(ctx, t.ChannelID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				continue
			}
			return nil, goerr.Wrap(err, "failed to get transcript", goerr.V("channel_id", t.ChannelID))
		}
		handled += tr.ClosedAt.Sub(t.CreatedAt)
		handledCount++
	}
	if handledCount > 0 {
		stats.AvgHandlingHours = handled.Hours() / float64(handledCount)
	}

	return stats, nil
}
