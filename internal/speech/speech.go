// Package speech renders feedback phrases as audio through an external
// text-to-speech program.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Synthesizer speaks a phrase, blocking until playback finishes or is queued.
type Synthesizer interface {
	Speak(ctx context.Context, phrase string) error
}

// ErrNoCommand is returned when a Command synthesizer has no program set.
var ErrNoCommand = errors.New("speech: no command configured")

// Nop discards every phrase.
type Nop struct{}

// Speak implements Synthesizer.
func (Nop) Speak(context.Context, string) error { return nil }

// Command runs a TTS program such as espeak or say, passing the phrase as
// the final argument.
type Command struct {
	Name    string
	Args    []string
	Timeout time.Duration // zero means 30s
}

// Speak implements Synthesizer.
func (c Command) Speak(ctx context.Context, phrase string) error {
	if c.Name == "" {
		return ErrNoCommand
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, c.Args...), phrase)
	cmd := exec.CommandContext(ctx, c.Name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out after %s: %w", c.Name, timeout, ctx.Err())
		}
		return fmt.Errorf("%s exited with error: %w: %s", c.Name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Recorder keeps every phrase it is asked to speak, in order. Not safe for
// concurrent use.
type Recorder struct {
	Phrases []string
}

// Speak implements Synthesizer.
func (r *Recorder) Speak(_ context.Context, phrase string) error {
	r.Phrases = append(r.Phrases, phrase)
	return nil
}
