package transcribe

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"
)

// Typed is a Provider fed by text the user types instead of speaks.
type Typed struct {
	q *queue
}

// NewTyped returns a typed provider whose Capture waits up to timeout.
func NewTyped(timeout time.Duration) *Typed {
	return &Typed{q: newQueue(timeout)}
}

// Submit queues an utterance. It reports false for blank text or a full queue.
func (t *Typed) Submit(text string) bool { return t.q.push(text) }

// Capture implements Provider.
func (t *Typed) Capture(ctx context.Context) (string, bool) { return t.q.next(ctx) }

// Flush implements Flusher.
func (t *Typed) Flush() { t.q.flush() }

// FeedLines submits each non-blank line of r, waiting for queue space,
// until EOF or ctx is done.
func (t *Typed) FeedLines(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		select {
		case t.q.ch <- text:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}
