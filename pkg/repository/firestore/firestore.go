package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
)

// Firestore is the production repository backend. Every entity maps to
// one collection; all writes are document sets/updates keyed by primary
// key, so concurrent writers serialize at the store.
type Firestore struct {
	client      *firestore.Client
	users       *userRepository
	tickets     *ticketRepository
	transcripts *transcriptRepository
	stats       *statsRepository
	setups      *setupRepository
	archives    *archiveRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, used by tests
// sharing one project.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.users.collectionPrefix = prefix
		f.tickets.collectionPrefix = prefix
		f.transcripts.collectionPrefix = prefix
		f.stats.collectionPrefix = prefix
		f.setups.collectionPrefix = prefix
		f.archives.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}

	f := &Firestore{
		client:      client,
		users:       &userRepository{client: client},
		tickets:     &ticketRepository{client: client},
		transcripts: &transcriptRepository{client: client},
		stats:       &statsRepository{client: client},
		setups:      &setupRepository{client: client},
		archives:    &archiveRepository{client: client},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) User() interfaces.UserRepository             { return f.users }
func (f *Firestore) Ticket() interfaces.TicketRepository         { return f.tickets }
func (f *Firestore) Transcript() interfaces.TranscriptRepository { return f.transcripts }
func (f *Firestore) Stats() interfaces.StatsRepository           { return f.stats }
func (f *Firestore) Setup() interfaces.SetupRepository           { return f.setups }
func (f *Firestore) Archive() interfaces.ArchiveRepository       { return f.archives }

// Wipe deletes every document in every collection. Operator surface
// only; not reachable from the lifecycle paths.
func (f *Firestore) Wipe(ctx context.Context) error {
	collections := []string{
		f.users.collection(),
		f.tickets.collection(),
		f.tickets.tokenCollection(),
		f.transcripts.collection(),
		f.stats.collection(),
		f.setups.collection(),
		f.archives.collection(),
	}

	for _, name := range collections {
		if err := f.deleteAll(ctx, name); err != nil {
			return goerr.Wrap(err, "failed to wipe collection", goerr.V("collection", name))
		}
	}
	return nil
}

func (f *Firestore) deleteAll(ctx context.Context, collection string) error {
	iter := f.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate documents")
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return goerr.Wrap(err, "failed to delete document", goerr.V("doc_id", doc.Ref.ID))
		}
	}
	return nil
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func prefixed(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}
