package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/sentiscribe/internal/db"
	"github.com/jwulff/sentiscribe/internal/ledger"
	"github.com/jwulff/sentiscribe/internal/sentiment"
)

type stubClassifier struct {
	score sentiment.Score
	err   error
}

func (s stubClassifier) Classify(ctx context.Context, text string) (sentiment.Score, error) {
	return s.score, s.err
}

func openStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seed(t *testing.T, store *db.Store, start time.Time, polarities ...float64) *db.Session {
	t.Helper()
	var recs []ledger.Record
	for i, p := range polarities {
		recs = append(recs, ledger.Record{
			Text:      "utterance",
			Sentiment: sentiment.LabelFor(p),
			Polarity:  p,
			Timestamp: start.Add(time.Duration(i) * time.Second),
		})
	}
	sess, err := store.SaveSession(start, recs)
	require.NoError(t, err)
	return sess
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestLatestSessionEmptyStore(t *testing.T) {
	h := &Handlers{Store: openStore(t)}

	res, err := h.LatestSession(context.Background(), call(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "No sessions recorded.", resultText(t, res))
}

func TestLatestSessionPicksNewest(t *testing.T) {
	store := openStore(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	seed(t, store, base, 0.5)
	newer := seed(t, store, base.Add(time.Hour), 0.5, -0.2)

	h := &Handlers{Store: store}
	res, err := h.LatestSession(context.Background(), call(nil))
	require.NoError(t, err)

	var got sessionView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, newer.ID, got.ID)
	assert.Equal(t, 2, got.Utterances)
}

func TestSessionUtterancesDefaultsToLatest(t *testing.T) {
	store := openStore(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	seed(t, store, base, 0.5, 0, -0.4)

	h := &Handlers{Store: store}
	res, err := h.SessionUtterances(context.Background(), call(nil))
	require.NoError(t, err)

	var got []utteranceView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Seq)
	assert.Equal(t, "Positive", got[0].Sentiment)
	assert.Equal(t, "Neutral", got[1].Sentiment)
	assert.Equal(t, "Negative", got[2].Sentiment)
}

func TestSessionUtterancesByID(t *testing.T) {
	store := openStore(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	older := seed(t, store, base, 0.5)
	seed(t, store, base.Add(time.Hour), -0.5, -0.5)

	h := &Handlers{Store: store}
	res, err := h.SessionUtterances(context.Background(), call(map[string]any{sessionIDArg: older.ID}))
	require.NoError(t, err)

	var got []utteranceView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Positive", got[0].Sentiment)
}

func TestSessionToolsWithoutSessions(t *testing.T) {
	h := &Handlers{Store: openStore(t)}

	res, err := h.SessionTally(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "no sessions")
}

func TestSessionTally(t *testing.T) {
	store := openStore(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	seed(t, store, base, 0.5, 0.1, -0.3)

	h := &Handlers{Store: store}
	res, err := h.SessionTally(context.Background(), call(nil))
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, map[string]int{"Positive": 2, "Negative": 1, "Neutral": 0}, got)
}

func TestClassifyText(t *testing.T) {
	h := &Handlers{Classifier: stubClassifier{score: sentiment.Score{Polarity: 1.7, Subjectivity: 0.4}}}

	res, err := h.ClassifyText(context.Background(), call(map[string]any{"text": "wonderful"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var got classificationView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, "Positive", got.Sentiment)
	assert.Equal(t, 1.0, got.Polarity)
	assert.Equal(t, 0.4, got.Subjectivity)
}

func TestClassifyTextErrors(t *testing.T) {
	tests := []struct {
		name       string
		classifier stubClassifier
		args       map[string]any
		want       string
	}{
		{"missing text", stubClassifier{}, nil, "text"},
		{"blank text", stubClassifier{}, map[string]any{"text": "   "}, "text is empty"},
		{"service down", stubClassifier{err: errors.New("connection refused")}, map[string]any{"text": "hi"}, "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handlers{Classifier: tt.classifier}
			res, err := h.ClassifyText(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func listedTools(t *testing.T, h *Handlers) string {
	t.Helper()
	s := New(h, "test")
	msg := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return string(b)
}

func TestNewRegistersTools(t *testing.T) {
	out := listedTools(t, &Handlers{Store: openStore(t), Classifier: stubClassifier{}})
	for _, name := range []string{"latest_session", "session_utterances", "session_tally", "classify_text"} {
		assert.Contains(t, out, `"`+name+`"`)
	}
}

func TestNewWithoutClassifier(t *testing.T) {
	out := listedTools(t, &Handlers{Store: openStore(t)})
	assert.Contains(t, out, `"session_tally"`)
	assert.NotContains(t, out, `"classify_text"`)
}
