package paste

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/utils/safe"
)

// CloudStorage uploads transcripts as text objects in a GCS bucket and
// returns the object's browser URL. Intended for deployments that keep
// transcripts private behind bucket IAM instead of a public paste site.
type CloudStorage struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ Uploader = &CloudStorage{}

func NewCloudStorage(ctx context.Context, bucket, prefix string) (*CloudStorage, error) {
	if bucket == "" {
		return nil, goerr.New("transcript bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &CloudStorage{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *CloudStorage) Upload(ctx context.Context, title, content string) (string, error) {
	object := fmt.Sprintf("%s-%s.txt", title, uuid.NewString())
	if s.prefix != "" {
		object = s.prefix + "/" + object
	}

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"

	if _, err := w.Write([]byte(content)); err != nil {
		safe.Close(ctx, w)
		return "", goerr.Wrap(err, "failed to write transcript object",
			goerr.V("bucket", s.bucket), goerr.V("object", object))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize transcript object",
			goerr.V("bucket", s.bucket), goerr.V("object", object))
	}

	return fmt.Sprintf("https://storage.cloud.google.com/%s/%s", s.bucket, object), nil
}

func (s *CloudStorage) Close() error {
	return s.client.Close()
}
