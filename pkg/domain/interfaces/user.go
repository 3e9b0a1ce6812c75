package interfaces

import (
	"context"

	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// UserRepository defines data access for observed users.
type UserRepository interface {
	// Put upserts the user keyed by ID.
	Put(ctx context.Context, u *model.User) error

	// Get retrieves a user by ID.
	Get(ctx context.Context, id types.UserID) (*model.User, error)
}
