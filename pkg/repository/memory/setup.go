package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

type setupRepository struct {
	mu     sync.RWMutex
	setups map[types.ChannelID]*model.SetupMessage
}

func newSetupRepository() *setupRepository {
	return &setupRepository{
		setups: make(map[types.ChannelID]*model.SetupMessage),
	}
}

func (r *setupRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setups = make(map[types.ChannelID]*model.SetupMessage)
}

func (r *setupRepository) Put(ctx context.Context, s *model.SetupMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *s
	r.setups[s.ChannelID] = &stored
	return nil
}

func (r *setupRepository) Get(ctx context.Context, ch types.ChannelID) (*model.SetupMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.setups[ch]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "setup message not found", goerr.V("channel_id", ch))
	}
	copied := *s
	return &copied, nil
}

func (r *setupRepository) List(ctx context.Context) ([]*model.SetupMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	setups := make([]*model.SetupMessage, 0, len(r.setups))
	for _, s := range r.setups {
		copied := *s
		setups = append(setups, &copied)
	}
	return setups, nil
}

func (r *setupRepository) Delete(ctx context.Context, ch types.ChannelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.setups[ch]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "setup message not found", goerr.V("channel_id", ch))
	}
	delete(r.setups, ch)
	return nil
}
