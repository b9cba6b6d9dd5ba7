package daemon

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
)

// ErrConnectionClosed is returned when the daemon hangs up mid-read.
var ErrConnectionClosed = errors.New("connection closed")

// SocketPath returns the default daemon socket path, under
// $XDG_RUNTIME_DIR when set and the temp dir otherwise.
func SocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sentiscribe", "stt.sock")
}

// Client communicates with the daemon over a Unix socket.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
}

// Connect dials the daemon Unix socket.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

	return &Client{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SendCommand sends a command and reads one response line.
func (c *Client) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	line, err := c.readLine()
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if !resp.OK && resp.Error != "" {
		return resp, fmt.Errorf("daemon %s: %s", cmd.Cmd, resp.Error)
	}

	return resp, nil
}

// Subscribe asks the daemon to stream the named events on this connection.
// An empty list subscribes to everything.
func (c *Client) Subscribe(events ...string) error {
	_, err := c.SendCommand(Command{Cmd: CmdSubscribe, Events: events})
	return err
}

// ReadEvent reads the next NDJSON event line. Blocks until data arrives.
// After calling Subscribe, use this in a loop to receive events.
func (c *Client) ReadEvent() (Event, error) {
	line, err := c.readLine()
	if err != nil {
		return Event{}, fmt.Errorf("read event: %w", err)
	}

	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}

	return ev, nil
}

func (c *Client) readLine() ([]byte, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, ErrConnectionClosed
	}
	return c.scanner.Bytes(), nil
}
