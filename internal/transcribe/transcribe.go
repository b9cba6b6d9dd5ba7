// Package transcribe adapts speech-to-text sources to the single-call
// Provider contract used by the listening loop.
package transcribe

import (
	"context"
	"strings"
	"time"
)

// DefaultTimeout bounds how long Capture waits for an utterance.
const DefaultTimeout = 10 * time.Second

// queueSize bounds finalized utterances waiting for Capture.
const queueSize = 64

// Provider yields the next recognized utterance. Timeouts, unintelligible
// audio and service failures all report ok == false.
type Provider interface {
	Capture(ctx context.Context) (text string, ok bool)
}

// Flusher is implemented by providers that buffer utterances between
// captures. The loop flushes on start so stale speech is not recorded.
type Flusher interface {
	Flush()
}

// queue buffers finalized utterances until Capture asks for one.
type queue struct {
	ch      chan string
	timeout time.Duration
}

func newQueue(timeout time.Duration) *queue {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &queue{ch: make(chan string, queueSize), timeout: timeout}
}

// push enqueues text without blocking. Blank text and overflow are dropped.
func (q *queue) push(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	select {
	case q.ch <- text:
		return true
	default:
		return false
	}
}

func (q *queue) next(ctx context.Context) (string, bool) {
	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case text := <-q.ch:
		return text, true
	case <-timer.C:
	case <-ctx.Done():
	}
	return "", false
}

func (q *queue) flush() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}
