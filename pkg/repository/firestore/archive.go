package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

type archiveRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *archiveRepository) collection() string {
	return prefixed(r.collectionPrefix, "archived_tickets")
}

func (r *archiveRepository) Put(ctx context.Context, a *model.ArchivedTicket) error {
	ref := r.client.Collection(r.collection()).Doc(a.ChannelID.String())
	if _, err := ref.Set(ctx, a); err != nil {
		return goerr.Wrap(err, "failed to put archived ticket", goerr.V("channel_id", a.ChannelID))
	}
	return nil
}

func (r *archiveRepository) Get(ctx context.Context, ch types.ChannelID) (*model.ArchivedTicket, error) {
	doc, err := r.client.Collection(r.collection()).Doc(ch.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "archived ticket not found", goerr.V("channel_id", ch))
		}
		return nil, goerr.Wrap(err, "failed to get archived ticket", goerr.V("channel_id", ch))
	}

	var a model.ArchivedTicket
	if err := doc.DataTo(&a); err != nil {
		return nil, goerr.Wrap(err, "failed to decode archived ticket", goerr.V("channel_id", ch))
	}
	return &a, nil
}

func (r *archiveRepository) ListDue(ctx context.Context, now time.Time) ([]*model.ArchivedTicket, error) {
	iter := r.client.Collection(r.collection()).
		Where("DeleteAt", "<=", now).
		Documents(ctx)
	defer iter.Stop()

	var due []*model.ArchivedTicket
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate archived tickets")
		}

		var a model.ArchivedTicket
		if err := doc.DataTo(&a); err != nil {
			return nil, goerr.Wrap(err, "failed to decode archived ticket", goerr.V("doc_id", doc.Ref.ID))
		}
		due = append(due, &a)
	}
	return due, nil
}

func (r *archiveRepository) Delete(ctx context.Context, ch types.ChannelID) error {
	ref := r.client.Collection(r.collection()).Doc(ch.String())

	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "archived ticket not found", goerr.V("channel_id", ch))
		}
		return goerr.Wrap(err, "failed to get archived ticket", goerr.V("channel_id", ch))
	}

	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete archived ticket", goerr.V("channel_id", ch))
	}
	return nil
}
