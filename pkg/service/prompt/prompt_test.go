package prompt_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/lunar-city/ticketbot/pkg/service/prompt"
)

func TestPromptResolve(t *testing.T) {
	ctx := context.Background()
	r := prompt.New()

	got := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		text, err := r.Wait(ctx, "C1", "U1")
		got <- text
		errCh <- err
	}()

	// Wait until the session is registered
	for !r.Resolve("C1", "U1", "<@U2>") {
		time.Sleep(time.Millisecond)
	}

	gt.Value(t, <-got).Equal("<@U2>")
	gt.NoError(t, <-errCh)
}

func TestPromptTimeout(t *testing.T) {
	ctx := context.Background()
	r := prompt.New(prompt.WithTimeout(10 * time.Millisecond))

	_, err := r.Wait(ctx, "C1", "U1")
	gt.Error(t, err).Is(prompt.ErrTimedOut)
}

func TestPromptCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := prompt.New()
	_, err := r.Wait(ctx, "C1", "U1")
	gt.Error(t, err).Is(context.Canceled)
}

func TestResolveWithoutPrompt(t *testing.T) {
	r := prompt.New()
	gt.Bool(t, r.Resolve("C1", "U1", "just chatting")).False()
}

func TestPromptScopedToChannelAndUser(t *testing.T) {
	ctx := context.Background()
	r := prompt.New(prompt.WithTimeout(100 * time.Millisecond))

	done := make(chan error, 1)
	go func() {
		_, err := r.Wait(ctx, "C1", "U1")
		done <- err
	}()

	// Other channels and users never feed this prompt
	gt.Bool(t, r.Resolve("C2", "U1", "wrong channel")).False()
	gt.Bool(t, r.Resolve("C1", "U2", "wrong user")).False()

	gt.Error(t, <-done).Is(prompt.ErrTimedOut)
}
