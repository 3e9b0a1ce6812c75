package interfaces

import (
	"context"

	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// TranscriptRepository defines data access for close-time transcripts.
type TranscriptRepository interface {
	// Put upserts the transcript keyed by channel ID.
	Put(ctx context.Context, tr *model.Transcript) error

	// Get retrieves a transcript by channel ID.
	Get(ctx context.Context, ch types.ChannelID) (*model.Transcript, error)
}
