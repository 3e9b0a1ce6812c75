package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

type transcriptRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *transcriptRepository) collection() string {
	return prefixed(r.collectionPrefix, "transcripts")
}

func (r *transcriptRepository) Put(ctx context.Context, tr *model.Transcript) error {
	ref := r.client.Collection(r.collection()).Doc(tr.ChannelID.String())
	if _, err := ref.Set(ctx, tr); err != nil {
		return goerr.Wrap(err, "failed to put transcript", goerr.V("channel_id", tr.ChannelID))
	}
	return nil
}

func (r *transcriptRepository) Get(ctx context.Context, ch types.ChannelID) (*model.Transcript, error) {
	doc, err := r.client.Collection(r.collection()).Doc(ch.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "transcript not found", goerr.V("channel_id", ch))
		}
		return nil, goerr.Wrap(err, "failed to get transcript", goerr.V("channel_id", ch))
	}

	var tr model.Transcript
	if err := doc.DataTo(&tr); err != nil {
		return nil, goerr.Wrap(err, "failed to decode transcript", goerr.V("channel_id", ch))
	}
	return &tr, nil
}
