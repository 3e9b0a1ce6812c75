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

type ticketRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *ticketRepository) collection() string {
	return prefixed(r.collectionPrefix, "tickets")
}

// tokenCollection is an index collection enforcing ticket ID uniqueness:
// one empty document per issued token, written in the same transaction
// as the ticket row.
func (r *ticketRepository) tokenCollection() string {
	return prefixed(r.collectionPrefix, "ticket_tokens")
}

func (r *ticketRepository) doc(ch types.ChannelID) *firestore.DocumentRef {
	return r.client.Collection(r.collection()).Doc(ch.String())
}

func (r *ticketRepository) Create(ctx context.Context, t *model.Ticket) (*model.Ticket, error) {
	now := time.Now().UTC()
	created := &model.Ticket{
		ChannelID:       t.ChannelID,
		TicketID:        t.TicketID,
		Owner:           t.Owner,
		Category:        t.Category,
		ClaimedBy:       t.ClaimedBy,
		Closed:          t.Closed,
		CreatedAt:       t.CreatedAt,
		LastActivity:    t.LastActivity,
		AdditionalUsers: t.AdditionalUsers,
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	if created.LastActivity.IsZero() {
		created.LastActivity = created.CreatedAt
	}
	if created.AdditionalUsers == nil {
		created.AdditionalUsers = []types.UserID{}
	}

	ticketRef := r.doc(created.ChannelID)
	tokenRef := r.client.Collection(r.tokenCollection()).Doc(created.TicketID.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ticketRef); err == nil {
			return goerr.Wrap(interfaces.ErrAlreadyExists, "channel already has a ticket",
				goerr.V("channel_id", created.ChannelID))
		} else if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to check ticket existence")
		}

		if _, err := tx.Get(tokenRef); err == nil {
			return goerr.Wrap(interfaces.ErrAlreadyExists, "ticket ID is taken",
				goerr.V("ticket_id", created.TicketID))
		} else if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to check ticket ID uniqueness")
		}

		if err := tx.Set(tokenRef, map[string]interface{}{
			"ChannelID": created.ChannelID.String(),
		}); err != nil {
			return goerr.Wrap(err, "failed to reserve ticket ID")
		}
		return tx.Set(ticketRef, created)
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *ticketRepository) GetByChannel(ctx context.Context, ch types.ChannelID) (*model.Ticket, error) {
	doc, err := r.doc(ch).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("channel_id", ch))
	}

	var t model.Ticket
	if err := doc.DataTo(&t); err != nil {
		return nil, goerr.Wrap(err, "failed to decode ticket", goerr.V("channel_id", ch))
	}
	return &t, nil
}

func (r *ticketRepository) GetOpenByOwner(ctx context.Context, owner types.UserID) (*model.Ticket, error) {
	iter := r.client.Collection(r.collection()).
		Where("Owner", "==", owner.String()).
		Where("Closed", "==", false).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query open ticket", goerr.V("owner", owner))
	}

	var t model.Ticket
	if err := doc.DataTo(&t); err != nil {
		return nil, goerr.Wrap(err, "failed to decode ticket", goerr.V("doc_id", doc.Ref.ID))
	}
	return &t, nil
}

func (r *ticketRepository) List(ctx context.Context) ([]*model.Ticket, error) {
	return r.queryTickets(ctx, r.client.Collection(r.collection()).Query)
}

func (r *ticketRepository) ListByOwner(ctx context.Context, owner types.UserID) ([]*model.Ticket, error) {
	return r.queryTickets(ctx, r.client.Collection(r.collection()).
		Where("Owner", "==", owner.String()))
}

func (r *ticketRepository) ListOpenInactiveSince(ctx context.Context, cutoff time.Time) ([]*model.Ticket, error) {
	return r.queryTickets(ctx, r.client.Collection(r.collection()).
		Where("Closed", "==", false).
		Where("LastActivity", "<", cutoff))
}

func (r *ticketRepository) queryTickets(ctx context.Context, q firestore.Query) ([]*model.Ticket, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var tickets []*model.Ticket
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tickets")
		}

		var t model.Ticket
		if err := doc.DataTo(&t); err != nil {
			return nil, goerr.Wrap(err, "failed to decode ticket", goerr.V("doc_id", doc.Ref.ID))
		}
		tickets = append(tickets, &t)
	}
	return tickets, nil
}

func (r *ticketRepository) SetClaimed(ctx context.Context, ch types.ChannelID, staff types.UserID) error {
	return r.update(ctx, ch, []firestore.Update{
		{Path: "ClaimedBy", Value: staff.String()},
	})
}

func (r *ticketRepository) MarkClosed(ctx context.Context, ch types.ChannelID) error {
	return r.update(ctx, ch, []firestore.Update{
		{Path: "Closed", Value: true},
	})
}

// BumpActivity advances LastActivity monotonically. The compare happens
// inside a transaction so a late event cannot rewind the timestamp.
func (r *ticketRepository) BumpActivity(ctx context.Context, ch types.ChannelID, at time.Time) error {
	ref := r.doc(ch)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
			}
			return goerr.Wrap(err, "failed to get ticket")
		}

		var t model.Ticket
		if err := doc.DataTo(&t); err != nil {
			return goerr.Wrap(err, "failed to decode ticket")
		}
		if !at.After(t.LastActivity) {
			return nil
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "LastActivity", Value: at},
		})
	})
	return err
}

func (r *ticketRepository) AddParticipant(ctx context.Context, ch types.ChannelID, user types.UserID) error {
	return r.update(ctx, ch, []firestore.Update{
		{Path: "AdditionalUsers", Value: firestore.ArrayUnion(user.String())},
	})
}

func (r *ticketRepository) RemoveParticipant(ctx context.Context, ch types.ChannelID, user types.UserID) error {
	return r.update(ctx, ch, []firestore.Update{
		{Path: "AdditionalUsers", Value: firestore.ArrayRemove(user.String())},
	})
}

func (r *ticketRepository) SetCategory(ctx context.Context, ch types.ChannelID, category types.CategoryID) error {
	return r.update(ctx, ch, []firestore.Update{
		{Path: "Category", Value: category.String()},
	})
}

func (r *ticketRepository) update(ctx context.Context, ch types.ChannelID, updates []firestore.Update) error {
	if _, err := r.doc(ch).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "ticket not found", goerr.V("channel_id", ch))
		}
		return goerr.Wrap(err, "failed to update ticket", goerr.V("channel_id", ch))
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, ch types.ChannelID) error {
	t, err := r.GetByChannel(ctx, ch)
	if err != nil {
		return err
	}

	if _, err := r.client.Collection(r.tokenCollection()).Doc(t.TicketID.String()).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to release ticket ID", goerr.V("ticket_id", t.TicketID))
	}
	if _, err := r.doc(ch).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete ticket", goerr.V("channel_id", ch))
	}
	return nil
}
