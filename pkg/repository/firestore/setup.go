package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

type setupRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *setupRepository) collection() string {
	return prefixed(r.collectionPrefix, "ticket_setups")
}

func (r *setupRepository) Put(ctx context.Context, s *model.SetupMessage) error {
	ref := r.client.Collection(r.collection()).Doc(s.ChannelID.String())
	if _, err := ref.Set(ctx, s); err != nil {
		return goerr.Wrap(err, "failed to put setup message", goerr.V("channel_id", s.ChannelID))
	}
	return nil
}

func (r *setupRepository) Get(ctx context.Context, ch types.ChannelID) (*model.SetupMessage, error) {
	doc, err := r.client.Collection(r.collection()).Doc(ch.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "setup message not found", goerr.V("channel_id", ch))
		}
		return nil, goerr.Wrap(err, "failed to get setup message", goerr.V("channel_id", ch))
	}

	var s model.SetupMessage
	if err := doc.DataTo(&s); err != nil {
		return nil, goerr.Wrap(err, "failed to decode setup message", goerr.V("channel_id", ch))
	}
	return &s, nil
}

func (r *setupRepository) List(ctx context.Context) ([]*model.SetupMessage, error) {
	iter := r.client.Collection(r.collection()).Documents(ctx)
	defer iter.Stop()

	var setups []*model.SetupMessage
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate setup messages")
		}

		var s model.SetupMessage
		if err := doc.DataTo(&s); err != nil {
			return nil, goerr.Wrap(err, "failed to decode setup message", goerr.V("doc_id", doc.Ref.ID))
		}
		setups = append(setups, &s)
	}
	return setups, nil
}

func (r *setupRepository) Delete(ctx context.Context, ch types.ChannelID) error {
	ref := r.client.Collection(r.collection()).Doc(ch.String())

	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "setup message not found", goerr.V("channel_id", ch))
		}
		return goerr.Wrap(err, "failed to get setup message", goerr.V("channel_id", ch))
	}

	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete setup message", goerr.V("channel_id", ch))
	}
	return nil
}
