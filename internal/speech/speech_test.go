package speech

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopSpeak(t *testing.T) {
	assert.NoError(t, Nop{}.Speak(context.Background(), "anything"))
}

func TestCommandWithoutName(t *testing.T) {
	err := Command{}.Speak(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestCommandRunsProgram(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	require.NoError(t, Command{Name: "true"}.Speak(context.Background(), "Great job!"))
}

func TestCommandReportsFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	err := Command{Name: "false"}.Speak(context.Background(), "Oops!")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "false exited with error")
}

func TestCommandMissingProgram(t *testing.T) {
	err := Command{Name: "definitely-not-a-tts-binary"}.Speak(context.Background(), "hi")
	assert.Error(t, err)
}

func TestRecorderKeepsOrder(t *testing.T) {
	r := &Recorder{}
	_ = r.Speak(context.Background(), "one")
	_ = r.Speak(context.Background(), "two")
	assert.Equal(t, []string{"one", "two"}, r.Phrases)
}
