package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[types.UserID]*model.User
}

func newUserRepository() *userRepository {
	return &userRepository{
		users: make(map[types.UserID]*model.User),
	}
}

func (r *userRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[types.UserID]*model.User)
}

func (r *userRepository) Put(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.users[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("user_id", id))
	}
	copied := *u
	return &copied, nil
}
