package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// Sentinel errors shared by all repository backends.
var (
	ErrNotFound      = goerr.New("record not found")
	ErrAlreadyExists = goerr.New("record already exists")
)

// Repository defines the interface for data persistence. The store is
// the sole source of truth; everything in-process is a derived view.
type Repository interface {
	User() UserRepository
	Ticket() TicketRepository
	Transcript() TranscriptRepository
	Stats() StatsRepository
	Setup() SetupRepository
	Archive() ArchiveRepository

	// Wipe removes all ticket data. Operator surface only.
	Wipe(ctx context.Context) error

	Close() error
}
