// Package paste uploads ticket transcripts to an external store and
// returns a shareable URL.
package paste

import "context"

// Uploader stores a transcript text and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, title, content string) (string, error)
}

// Discard is an Uploader that stores nothing, used when no transcript
// backend is configured.
type Discard struct{}

func (Discard) Upload(ctx context.Context, title, content string) (string, error) {
	return "", nil
}
