package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jwulff/sentiscribe/internal/config"
	"github.com/jwulff/sentiscribe/internal/export"
	"github.com/jwulff/sentiscribe/internal/speech"
)

// classifierServer scores "love" as positive, "awful" as negative and
// everything else as neutral.
func classifierServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		polarity := 0.0
		switch {
		case strings.Contains(req.Text, "love"):
			polarity = 0.5
		case strings.Contains(req.Text, "awful"):
			polarity = -1
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]float64{"polarity": polarity, "subjectivity": 0.6})
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func testConfig(classifierURL string) *config.Config {
	return &config.Config{
		Listener: config.ListenerConfig{Delay: time.Millisecond, StopPhrase: "stop listening"},
		Transcription: config.TranscriptionConfig{
			Provider: config.ProviderTyped,
			Timeout:  50 * time.Millisecond,
		},
		Classifier: config.ClassifierConfig{URL: classifierURL, Timeout: time.Second},
	}
}

func resetListenFlags(t *testing.T) {
	t.Cleanup(func() {
		listenCSV, listenText, listenSQLite, listenTrends = "", "", "", false
	})
}

func TestListenStopsOnStopPhrase(t *testing.T) {
	resetListenFlags(t)
	dir := t.TempDir()
	listenCSV = filepath.Join(dir, "session")
	listenText = filepath.Join(dir, "session.txt")

	in := strings.NewReader("I love this\nthat was awful\nplease stop listening\nnever read\n")
	var out bytes.Buffer
	err := listen(context.Background(), testConfig(classifierServer(t)), zap.NewNop(), in, &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "You said: I love this\nSentiment: Positive\n")
	assert.Contains(t, got, "You said: that was awful\nSentiment: Negative\n")
	assert.Contains(t, got, "You said: please stop listening\nSentiment: Neutral\n")
	assert.Contains(t, got, export.StopLine)
	assert.NotContains(t, got, "never read")
	assert.Contains(t, got, "Export Successful: "+filepath.Join(dir, "session.csv"))

	csvData, err := os.ReadFile(filepath.Join(dir, "session.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, export.Header, lines[0])

	text, err := os.ReadFile(filepath.Join(dir, "session.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(text), export.StopLine+"\n"))
}

func TestListenEndsAtEndOfInput(t *testing.T) {
	resetListenFlags(t)
	listenTrends = true

	var out bytes.Buffer
	err := listen(context.Background(), testConfig(classifierServer(t)), zap.NewNop(),
		strings.NewReader("I love this\n"), &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Sentiment: Positive")
	assert.Contains(t, got, export.StopLine)
	assert.Contains(t, got, "SENTIMENT TRENDS (1)")
}

func TestListenNoDataExport(t *testing.T) {
	resetListenFlags(t)
	listenCSV = filepath.Join(t.TempDir(), "empty.csv")

	var out bytes.Buffer
	err := listen(context.Background(), testConfig(classifierServer(t)), zap.NewNop(),
		strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No data to export.")
	assert.NoFileExists(t, listenCSV)
}

func TestListenClassifierDown(t *testing.T) {
	resetListenFlags(t)
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Classifier.Timeout = 200 * time.Millisecond

	var out bytes.Buffer
	err := listen(context.Background(), cfg, zap.NewNop(),
		strings.NewReader("hello there\nstop listening\n"), &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, `Could not classify "hello there"`)
	assert.NotContains(t, got, "You said:")
	assert.Contains(t, got, export.StopLine)
}

func TestNewProvider(t *testing.T) {
	logger := zap.NewNop()

	p, typed, closeFn, err := newProvider(config.TranscriptionConfig{Provider: config.ProviderTyped, Timeout: time.Second}, logger)
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.NotNil(t, typed)
	assert.Nil(t, closeFn)

	p, typed, closeFn, err = newProvider(config.TranscriptionConfig{
		Provider: config.ProviderDaemon, Socket: filepath.Join(t.TempDir(), "none.sock"), Timeout: time.Second,
	}, logger)
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Nil(t, typed)
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())

	p, typed, closeFn, err = newProvider(config.TranscriptionConfig{
		Provider: config.ProviderWebSocket, URL: "ws://127.0.0.1:1/stream", Timeout: time.Second,
	}, logger)
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Nil(t, typed)
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())

	_, _, _, err = newProvider(config.TranscriptionConfig{Provider: "carrier-pigeon"}, logger)
	assert.ErrorContains(t, err, "carrier-pigeon")
}

func TestNewSynthesizer(t *testing.T) {
	assert.Equal(t, speech.Nop{}, newSynthesizer(config.SpeechConfig{}))
	assert.Equal(t,
		speech.Command{Name: "say", Args: []string{"-v", "Alex"}},
		newSynthesizer(config.SpeechConfig{Enabled: true, Command: "say", Args: []string{"-v", "Alex"}}))
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sentiscribe.yaml")

	var out bytes.Buffer
	configInitCmd.SetOut(&out)
	t.Cleanup(func() { configInitCmd.SetOut(nil) })

	require.NoError(t, configInitCmd.RunE(configInitCmd, []string{path}))
	assert.Equal(t, "Wrote default config to "+path+"\n", out.String())
	assert.FileExists(t, path)

	err := configInitCmd.RunE(configInitCmd, []string{path})
	assert.ErrorIs(t, err, config.ErrExists)
}
