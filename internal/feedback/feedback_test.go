package feedback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwulff/sentiscribe/internal/sentiment"
	"github.com/jwulff/sentiscribe/internal/speech"
)

type slowSynth struct {
	mu      sync.Mutex
	phrases []string
	delay   time.Duration
}

func (s *slowSynth) Speak(_ context.Context, phrase string) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phrases = append(s.phrases, phrase)
	return nil
}

type failingSynth struct{ calls int }

func (f *failingSynth) Speak(context.Context, string) error {
	f.calls++
	return errors.New("no audio device")
}

func TestPhrase(t *testing.T) {
	assert.Equal(t, PositivePhrase, Phrase(sentiment.Positive))
	assert.Equal(t, NegativePhrase, Phrase(sentiment.Negative))
	assert.Equal(t, NeutralPhrase, Phrase(sentiment.Neutral))
}

func TestDispatchBlocking(t *testing.T) {
	r := &speech.Recorder{}
	d := New(r, nil)

	d.Dispatch(context.Background(), sentiment.Positive)
	d.Dispatch(context.Background(), sentiment.Neutral)

	assert.Equal(t, []string{PositivePhrase, NeutralPhrase}, r.Phrases)
}

func TestDispatchAbsorbsErrors(t *testing.T) {
	f := &failingSynth{}
	d := New(f, nil)

	assert.NotPanics(t, func() { d.Dispatch(context.Background(), sentiment.Negative) })
	assert.Equal(t, 1, f.calls)
}

func TestDispatchAsyncPreservesOrder(t *testing.T) {
	s := &slowSynth{delay: 2 * time.Millisecond}
	d := NewAsync(s, nil)

	labels := []sentiment.Label{
		sentiment.Positive, sentiment.Negative, sentiment.Neutral,
		sentiment.Negative, sentiment.Positive,
	}
	for _, l := range labels {
		d.Dispatch(context.Background(), l)
	}
	d.Close()

	want := make([]string, len(labels))
	for i, l := range labels {
		want[i] = Phrase(l)
	}
	assert.Equal(t, want, s.phrases)
}

func TestCloseIsIdempotent(t *testing.T) {
	d := NewAsync(speech.Nop{}, nil)
	d.Close()
	assert.NotPanics(t, d.Close)

	blocking := New(nil, nil)
	assert.NotPanics(t, blocking.Close)
}
