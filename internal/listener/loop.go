// Package listener drives the capture, classify, record and feedback cycle.
package listener

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/sentiscribe/internal/feedback"
	"github.com/jwulff/sentiscribe/internal/ledger"
	"github.com/jwulff/sentiscribe/internal/sentiment"
	"github.com/jwulff/sentiscribe/internal/transcribe"
)

// Defaults for Options.
const (
	DefaultDelay      = time.Second
	DefaultStopPhrase = "stop listening"
)

// ErrAlreadyRunning is returned by Start while the loop is running.
var ErrAlreadyRunning = errors.New("listener: already running")

// EventKind identifies what happened during an iteration.
type EventKind int

const (
	EventStarted EventKind = iota
	EventNoText
	EventRecorded
	EventClassifyFailed
	EventStopPhrase
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventNoText:
		return "no_text"
	case EventRecorded:
		return "recorded"
	case EventClassifyFailed:
		return "classify_failed"
	case EventStopPhrase:
		return "stop_phrase"
	case EventStopped:
		return "stopped"
	}
	return "unknown"
}

// Event is reported to the OnEvent hook.
type Event struct {
	Kind   EventKind
	Text   string        // recognized text, if any
	Record ledger.Record // set for EventRecorded
	Err    error         // set for EventClassifyFailed
}

// Options wires a Loop to its collaborators. Provider, Classifier and
// Ledger are required.
type Options struct {
	Provider   transcribe.Provider
	Classifier sentiment.Classifier
	Ledger     *ledger.Ledger
	Feedback   *feedback.Dispatcher
	Logger     *zap.Logger

	Delay      time.Duration // pause after every iteration
	StopPhrase string        // matched case-insensitively against each utterance

	// OnEvent is called from the loop goroutine. It must not block.
	OnEvent func(Event)

	Now func() time.Time
}

// Loop owns the listening state. At most one loop goroutine exists at a time.
type Loop struct {
	opts Options

	mu      sync.Mutex
	running bool          // permitted to run another iteration
	alive   bool          // goroutine exists
	done    chan struct{} // closed when the goroutine exits
}

// New returns a stopped loop.
func New(opts Options) *Loop {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.StopPhrase == "" {
		opts.StopPhrase = DefaultStopPhrase
	}
	opts.StopPhrase = strings.ToLower(opts.StopPhrase)
	if opts.Feedback == nil {
		opts.Feedback = feedback.New(nil, opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	done := make(chan struct{})
	close(done)
	return &Loop{opts: opts, done: done}
}

// Start begins listening. If a stop was requested but the goroutine has not
// yet observed it, Start re-arms the same goroutine instead of spawning one.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrAlreadyRunning
	}
	if f, ok := l.opts.Provider.(transcribe.Flusher); ok {
		f.Flush()
	}
	l.running = true
	if l.alive {
		return nil
	}
	l.alive = true
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
	return nil
}

// Stop asks the loop to halt before its next iteration. An in-flight
// capture or feedback call is not interrupted.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
}

// Running reports whether the loop may run another iteration.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Wait blocks until the loop goroutine has exited.
func (l *Loop) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	<-done
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	l.opts.Logger.Info("listening started")
	l.emit(Event{Kind: EventStarted})

	for l.proceed(ctx) {
		l.iterate(ctx)

		if !l.Running() {
			continue
		}
		timer := time.NewTimer(l.opts.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	l.opts.Logger.Info("listening stopped")
	l.emit(Event{Kind: EventStopped})
}

// proceed reports whether another iteration may start. When it may not, the
// goroutine is marked dead under the same lock so Start cannot miss it.
func (l *Loop) proceed(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ctx.Err() != nil {
		l.running = false
	}
	if l.running {
		return true
	}
	l.alive = false
	return false
}

func (l *Loop) iterate(ctx context.Context) {
	text, ok := l.opts.Provider.Capture(ctx)
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		l.emit(Event{Kind: EventNoText})
		return
	}
	capturedAt := l.opts.Now()

	cls, err := sentiment.Classify(ctx, l.opts.Classifier, text)
	switch {
	case err != nil:
		l.opts.Logger.Warn("classification failed", zap.String("text", text), zap.Error(err))
		l.emit(Event{Kind: EventClassifyFailed, Text: text, Err: err})
	case cls.IsNoInput():
		l.emit(Event{Kind: EventNoText})
	default:
		l.record(ctx, text, cls, capturedAt)
	}

	if strings.Contains(strings.ToLower(text), l.opts.StopPhrase) {
		l.Stop()
		l.opts.Logger.Info("stop phrase detected", zap.String("text", text))
		l.emit(Event{Kind: EventStopPhrase, Text: text})
	}
}

func (l *Loop) record(ctx context.Context, text string, cls sentiment.Classification, at time.Time) {
	rec := ledger.NewRecord(text, cls, at)
	if err := l.opts.Ledger.Append(rec); err != nil {
		l.opts.Logger.Error("append rejected", zap.String("text", text), zap.Error(err))
		return
	}
	l.opts.Logger.Debug("utterance recorded",
		zap.String("text", text),
		zap.String("sentiment", string(rec.Sentiment)),
		zap.Float64("polarity", rec.Polarity),
		zap.Float64("subjectivity", rec.Subjectivity))
	l.emit(Event{Kind: EventRecorded, Text: text, Record: rec})

	l.opts.Feedback.Dispatch(ctx, rec.Sentiment)
}

func (l *Loop) emit(ev Event) {
	if l.opts.OnEvent != nil {
		l.opts.OnEvent(ev)
	}
}
