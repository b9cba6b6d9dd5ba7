package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Transcript is one message from a streaming speech-to-text endpoint.
type Transcript struct {
	Text     string `json:"text"`
	IsFinal  bool   `json:"is_final"`
	Language string `json:"language,omitempty"`
}

// WebSocketOptions configures a WebSocket provider.
type WebSocketOptions struct {
	URL     string
	Timeout time.Duration
	Logger  *zap.Logger
}

// WebSocket is a Provider fed by a streaming STT endpoint that owns the
// audio device and pushes JSON transcripts. Only final transcripts count.
type WebSocket struct {
	opts   WebSocketOptions
	q      *queue
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocket returns a provider that dials lazily on the first Capture.
func NewWebSocket(opts WebSocketOptions) *WebSocket {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &WebSocket{
		opts:   opts,
		q:      newQueue(opts.Timeout),
		dialer: websocket.DefaultDialer,
	}
}

// Capture implements Provider.
func (w *WebSocket) Capture(ctx context.Context) (string, bool) {
	if err := w.connect(ctx); err != nil {
		w.opts.Logger.Debug("stt websocket unavailable", zap.String("url", w.opts.URL), zap.Error(err))
		return "", false
	}
	return w.q.next(ctx)
}

// Flush implements Flusher.
func (w *WebSocket) Flush() { w.q.flush() }

// Close sends a normal close frame and drops the connection.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return nil
	}
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := w.conn.Close()
	w.conn = nil
	if err != nil {
		return fmt.Errorf("error closing stt websocket: %w", err)
	}
	return nil
}

func (w *WebSocket) connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn != nil {
		return nil
	}
	conn, _, err := w.dialer.DialContext(ctx, w.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to stt websocket: %w", err)
	}
	w.conn = conn
	go w.readTranscripts(conn)
	return nil
}

func (w *WebSocket) readTranscripts(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			w.opts.Logger.Warn("stt websocket read failed", zap.Error(err))
			w.mu.Lock()
			if w.conn == conn {
				w.conn.Close()
				w.conn = nil
			}
			w.mu.Unlock()
			return
		}

		var tr Transcript
		if err := json.Unmarshal(msg, &tr); err != nil {
			w.opts.Logger.Debug("ignoring malformed transcript", zap.ByteString("msg", msg))
			continue
		}
		if tr.IsFinal {
			w.q.push(tr.Text)
		}
	}
}
