package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

type archiveRepository struct {
	mu       sync.RWMutex
	archives map[types.ChannelID]*model.ArchivedTicket
}

func newArchiveRepository() *archiveRepository {
	return &archiveRepository{
		archives: make(map[types.ChannelID]*model.ArchivedTicket),
	}
}

func (r *archiveRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archives = make(map[types.ChannelID]*model.ArchivedTicket)
}

func (r *archiveRepository) Put(ctx context.Context, a *model.ArchivedTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *a
	r.archives[a.ChannelID] = &stored
	return nil
}

func (r *archiveRepository) Get(ctx context.Context, ch types.ChannelID) (*model.ArchivedTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.archives[ch]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "archived ticket not found", goerr.V("channel_id", ch))
	}
	copied := *a
	return &copied, nil
}

func (r *archiveRepository) ListDue(ctx context.Context, now time.Time) ([]*model.ArchivedTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []*model.ArchivedTicket
	for _, a := range r.archives {
		if !a.DeleteAt.After(now) {
			copied := *a
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (r *archiveRepository) Delete(ctx context.Context, ch types.ChannelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.archives[ch]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "archived ticket not found", goerr.V("channel_id", ch))
	}
	delete(r.archives, ch)
	return nil
}
