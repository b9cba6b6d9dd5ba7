package transcribe

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/sentiscribe/internal/daemon"
)

func TestTypedCapture(t *testing.T) {
	p := NewTyped(50 * time.Millisecond)

	assert.True(t, p.Submit("  I am happy "))
	text, ok := p.Capture(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "I am happy", text)
}

func TestTypedCaptureTimesOut(t *testing.T) {
	p := NewTyped(10 * time.Millisecond)

	start := time.Now()
	text, ok := p.Capture(context.Background())
	assert.False(t, ok)
	assert.Empty(t, text)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTypedCaptureHonorsContext(t *testing.T) {
	p := NewTyped(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := p.Capture(ctx)
	assert.False(t, ok)
}

func TestTypedRejectsBlank(t *testing.T) {
	p := NewTyped(time.Millisecond)
	assert.False(t, p.Submit("   "))
	_, ok := p.Capture(context.Background())
	assert.False(t, ok)
}

func TestTypedFlush(t *testing.T) {
	p := NewTyped(10 * time.Millisecond)
	p.Submit("stale one")
	p.Submit("stale two")
	p.Flush()

	_, ok := p.Capture(context.Background())
	assert.False(t, ok)
}

func TestTypedFeedLines(t *testing.T) {
	p := NewTyped(50 * time.Millisecond)
	input := "I am happy\n\nI am sad\n"

	require.NoError(t, p.FeedLines(context.Background(), strings.NewReader(input)))

	first, ok := p.Capture(context.Background())
	require.True(t, ok)
	second, ok := p.Capture(context.Background())
	require.True(t, ok)
	assert.Equal(t, "I am happy", first)
	assert.Equal(t, "I am sad", second)
}

// mockDaemon accepts a command connection and an event connection. Every
// command gets an ok response; the subscribe connection then streams segments.
func mockDaemon(t *testing.T, segments []string) (string, <-chan string) {
	t.Helper()

	sockPath := filepath.Join(t.TempDir(), "stt.sock")
	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	cmds := make(chan string, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				dec := json.NewDecoder(conn)
				for {
					var cmd daemon.Command
					if err := dec.Decode(&cmd); err != nil {
						return
					}
					cmds <- cmd.Cmd
					resp, _ := json.Marshal(daemon.Response{OK: true, SessionID: "sess-1"})
					conn.Write(append(resp, '\n'))

					if cmd.Cmd == daemon.CmdSubscribe {
						for _, s := range segments {
							ev, _ := json.Marshal(daemon.Event{Event: daemon.EventPartial, Text: s[:1]})
							conn.Write(append(ev, '\n'))
							ev, _ = json.Marshal(daemon.Event{Event: daemon.EventSegment, Text: s})
							conn.Write(append(ev, '\n'))
						}
					}
				}
			}(conn)
		}
	}()
	return sockPath, cmds
}

func TestDaemonCapture(t *testing.T) {
	sockPath, cmds := mockDaemon(t, []string{"I love this", "Please stop listening now"})

	p := NewDaemon(DaemonOptions{Socket: sockPath, Timeout: time.Second})
	defer p.Close()

	text, ok := p.Capture(context.Background())
	require.True(t, ok)
	assert.Equal(t, "I love this", text)

	text, ok = p.Capture(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Please stop listening now", text)

	seen := map[string]bool{}
	for len(cmds) > 0 {
		seen[<-cmds] = true
	}
	assert.True(t, seen[daemon.CmdSubscribe], "should subscribe")
	assert.True(t, seen[daemon.CmdStart], "should start recording")
}

func TestDaemonUnavailableIsNoText(t *testing.T) {
	p := NewDaemon(DaemonOptions{Socket: "/nonexistent/stt.sock", Timeout: time.Hour})

	start := time.Now()
	text, ok := p.Capture(context.Background())
	assert.False(t, ok)
	assert.Empty(t, text)
	assert.Less(t, time.Since(start), time.Second, "unreachable daemon should not wait out the timeout")
	assert.NoError(t, p.Close())
}

func wsServer(t *testing.T, msgs []Transcript) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		once.Do(func() {
			for _, m := range msgs {
				conn.WriteJSON(m)
			}
			conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		})
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketCaptureFinalsOnly(t *testing.T) {
	url := wsServer(t, []Transcript{
		{Text: "I am", IsFinal: false},
		{Text: "I am sad", IsFinal: true, Language: "en"},
		{Text: "", IsFinal: true},
		{Text: "It is a table", IsFinal: true},
	})

	p := NewWebSocket(WebSocketOptions{URL: url, Timeout: time.Second})
	defer p.Close()

	text, ok := p.Capture(context.Background())
	require.True(t, ok)
	assert.Equal(t, "I am sad", text)

	text, ok = p.Capture(context.Background())
	require.True(t, ok)
	assert.Equal(t, "It is a table", text)
}

func TestWebSocketUnavailableIsNoText(t *testing.T) {
	p := NewWebSocket(WebSocketOptions{URL: "ws://127.0.0.1:1/stt", Timeout: time.Hour})

	_, ok := p.Capture(context.Background())
	assert.False(t, ok)
	assert.NoError(t, p.Close())
}
