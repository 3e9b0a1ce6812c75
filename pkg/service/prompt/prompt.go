// Package prompt tracks pending in-channel questions. A handler that
// needs a free-text answer registers a session for a (channel, user)
// pair and waits; the message webhook resolves the session with the
// next message that user posts in that channel.
package prompt

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

// ErrTimedOut is returned by Wait when no answer arrives in time.
var ErrTimedOut = goerr.New("prompt timed out")

const DefaultTimeout = 60 * time.Second

type key struct {
	channel types.ChannelID
	user    types.UserID
}

type session struct {
	id     string
	answer chan string
}

// Registry holds the pending prompts. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[key]*session
	timeout  time.Duration
}

type Option func(*Registry)

// WithTimeout changes the per-prompt timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.timeout = d
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[key]*session),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Wait registers a prompt for the user in the channel and blocks until
// the user's next message in that channel, the timeout, or ctx
// cancellation. A new Wait for the same pair supersedes the old one.
func (r *Registry) Wait(ctx context.Context, ch types.ChannelID, user types.UserID) (string, error) {
	s := &session{
		id:     uuid.NewString(),
		answer: make(chan string, 1),
	}
	k := key{channel: ch, user: user}

	r.mu.Lock()
	r.sessions[k] = s
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if cur, ok := r.sessions[k]; ok && cur.id == s.id {
			delete(r.sessions, k)
		}
		r.mu.Unlock()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case text := <-s.answer:
		return text, nil
	case <-timer.C:
		return "", goerr.Wrap(ErrTimedOut, "no answer received",
			goerr.V("channel_id", ch), goerr.V("user_id", user))
	case <-ctx.Done():
		return "", goerr.Wrap(ctx.Err(), "prompt canceled",
			goerr.V("channel_id", ch), goerr.V("user_id", user))
	}
}

// Resolve delivers a message to a pending prompt. It reports whether
// the message was consumed by a prompt, so the caller can skip normal
// message handling for it.
func (r *Registry) Resolve(ch types.ChannelID, user types.UserID, text string) bool {
	k := key{channel: ch, user: user}

	r.mu.Lock()
	s, ok := r.sessions[k]
	if ok {
		delete(r.sessions, k)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.answer <- text
	return true
}
