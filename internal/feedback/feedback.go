// Package feedback turns a sentiment label into a spoken reaction.
package feedback

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jwulff/sentiscribe/internal/sentiment"
	"github.com/jwulff/sentiscribe/internal/speech"
)

// Phrases spoken for each label.
const (
	PositivePhrase = "Great job! Your statement is positive."
	NegativePhrase = "Oops! Your statement is negative."
	NeutralPhrase  = "Your statement seems neutral."
)

// queueSize bounds pending phrases in async mode.
const queueSize = 32

// Phrase returns the feedback phrase for a label.
func Phrase(l sentiment.Label) string {
	switch l {
	case sentiment.Positive:
		return PositivePhrase
	case sentiment.Negative:
		return NegativePhrase
	default:
		return NeutralPhrase
	}
}

// Dispatcher hands phrases to a Synthesizer. In async mode a single worker
// speaks queued phrases in the order they were dispatched.
type Dispatcher struct {
	synth  speech.Synthesizer
	logger *zap.Logger

	queue     chan string
	done      chan struct{}
	closeOnce sync.Once
}

// New returns a blocking dispatcher.
func New(synth speech.Synthesizer, logger *zap.Logger) *Dispatcher {
	if synth == nil {
		synth = speech.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{synth: synth, logger: logger}
}

// NewAsync returns a dispatcher whose Dispatch returns once the phrase is
// queued. Call Close to flush and stop the worker.
func NewAsync(synth speech.Synthesizer, logger *zap.Logger) *Dispatcher {
	d := New(synth, logger)
	d.queue = make(chan string, queueSize)
	d.done = make(chan struct{})
	go d.worker()
	return d
}

// Dispatch speaks the phrase for l. Synthesis errors are logged, not returned.
func (d *Dispatcher) Dispatch(ctx context.Context, l sentiment.Label) {
	phrase := Phrase(l)
	if d.queue == nil {
		d.speak(ctx, phrase)
		return
	}
	select {
	case d.queue <- phrase:
	case <-ctx.Done():
	}
}

// Close stops the async worker after it drains the queue. Dispatch must not
// be called after Close. No-op for blocking dispatchers.
func (d *Dispatcher) Close() {
	if d.queue == nil {
		return
	}
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for phrase := range d.queue {
		d.speak(context.Background(), phrase)
	}
}

func (d *Dispatcher) speak(ctx context.Context, phrase string) {
	if err := d.synth.Speak(ctx, phrase); err != nil {
		d.logger.Warn("feedback synthesis failed", zap.String("phrase", phrase), zap.Error(err))
	}
}
