package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
)

type statsRepository struct {
	mu      sync.RWMutex
	buckets map[model.StatDate]*model.DailyStats
}

func newStatsRepository() *statsRepository {
	return &statsRepository{
		buckets: make(map[model.StatDate]*model.DailyStats),
	}
}

func (r *statsRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buckets = make(map[model.StatDate]*model.DailyStats)
}

func (r *statsRepository) Increment(ctx context.Context, date model.StatDate, kind model.StatKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, exists := r.buckets[date]
	if !exists {
		bucket = &model.DailyStats{Date: date}
		r.buckets[date] = bucket
	}

	switch kind {
	case model.StatOpened:
		bucket.Opened++
	case model.StatClosed:
		bucket.Closed++
	case model.StatClaimed:
		bucket.Claimed++
	default:
		return goerr.New("unknown stat kind", goerr.V("kind", kind))
	}
	return nil
}

func (r *statsRepository) Get(ctx context.Context, date model.StatDate) (*model.DailyStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket, exists := r.buckets[date]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "stats bucket not found", goerr.V("date", date))
	}
	copied := *bucket
	return &copied, nil
}

func (r *statsRepository) ListSince(ctx context.Context, since model.StatDate) ([]*model.DailyStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buckets []*model.DailyStats
	for _, b := range r.buckets {
		if since == "" || b.Date >= since {
			copied := *b
			buckets = append(buckets, &copied)
		}
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Date > buckets[j].Date
	})
	return buckets, nil
}
