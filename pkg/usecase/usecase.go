package usecase

import (
	"time"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
	"github.com/lunar-city/ticketbot/pkg/service/paste"
)

// Container name prefixes on the chat platform. Ticket channels live
// under the per-category container; closed channels move to "arch".
const (
	ticketContainerPrefix = "tk"
	archivedContainer     = "arch"
)

// UseCases is the ticket registry: every lifecycle transition goes
// through here, whether triggered by a webhook, a sweep, or the CLI.
type UseCases struct {
	repo       interfaces.Repository
	chatSvc    chat.Service
	uploader   paste.Uploader
	categories []chat.Category

	archiveRetention time.Duration
	now              func() time.Time
}

type Option func(*UseCases)

// WithUploader sets the transcript upload backend.
func WithUploader(u paste.Uploader) Option {
	return func(uc *UseCases) {
		uc.uploader = u
	}
}

// WithArchiveRetention sets how long a closed ticket's channel is kept
// before the deletion sweep removes it.
func WithArchiveRetention(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.archiveRetention = d
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, chatSvc chat.Service, categories []chat.Category, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:             repo,
		chatSvc:          chatSvc,
		uploader:         paste.Discard{},
		categories:       categories,
		archiveRetention: 10 * 24 * time.Hour,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Repo exposes the repository for the CLI admin commands.
func (uc *UseCases) Repo() interfaces.Repository {
	return uc.repo
}
