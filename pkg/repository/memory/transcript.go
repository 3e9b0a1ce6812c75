package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

type transcriptRepository struct {
	mu          sync.RWMutex
	transcripts map[types.ChannelID]*model.Transcript
}

func newTranscriptRepository() *transcriptRepository {
	return &transcriptRepository{
		transcripts: make(map[types.ChannelID]*model.Transcript),
	}
}

func (r *transcriptRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts = make(map[types.ChannelID]*model.Transcript)
}

func (r *transcriptRepository) Put(ctx context.Context, tr *model.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *tr
	r.transcripts[tr.ChannelID] = &stored
	return nil
}

func (r *transcriptRepository) Get(ctx context.Context, ch types.ChannelID) (*model.Transcript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tr, exists := r.transcripts[ch]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "transcript not found", goerr.V("channel_id", ch))
	}
	copied := *tr
	return &copied, nil
}
