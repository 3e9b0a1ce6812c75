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
)

type statsRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *statsRepository) collection() string {
	return prefixed(r.collectionPrefix, "ticket_stats")
}

// Increment adds one to the day's counter inside a transaction so
// concurrent events never lose updates.
func (r *statsRepository) Increment(ctx context.Context, date model.StatDate, kind model.StatKind) error {
	ref := r.client.Collection(r.collection()).Doc(date.String())

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		bucket := model.DailyStats{Date: date}

		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to get stats bucket")
			}
		} else if err := doc.DataTo(&bucket); err != nil {
			return goerr.Wrap(err, "failed to decode stats bucket")
		}

		switch kind {
		case model.StatOpened:
			bucket.Opened++
		case model.StatClosed:
			bucket.Closed++
		case model.StatClaimed:
			bucket.Claimed++
		default:
			return goerr.New("unknown stat kind", goerr.V("kind", kind))
		}

		return tx.Set(ref, &bucket)
	})
}

func (r *statsRepository) Get(ctx context.Context, date model.StatDate) (*model.DailyStats, error) {
	doc, err := r.client.Collection(r.collection()).Doc(date.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "stats bucket not found", goerr.V("date", date))
		}
		return nil, goerr.Wrap(err, "failed to get stats bucket", goerr.V("date", date))
	}

	var bucket model.DailyStats
	if err := doc.DataTo(&bucket); err != nil {
		return nil, goerr.Wrap(err, "failed to decode stats bucket", goerr.V("date", date))
	}
	return &bucket, nil
}

func (r *statsRepository) ListSince(ctx context.Context, since model.StatDate) ([]*model.DailyStats, error) {
	q := r.client.Collection(r.collection()).Query
	if since != "" {
		q = q.Where("Date", ">=", since.String())
	}
	q = q.OrderBy("Date", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var buckets []*model.DailyStats
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate stats buckets")
		}

		var bucket model.DailyStats
		if err := doc.DataTo(&bucket); err != nil {
			return nil, goerr.Wrap(err, "failed to decode stats bucket", goerr.V("doc_id", doc.Ref.ID))
		}
		buckets = append(buckets, &bucket)
	}
	return buckets, nil
}
