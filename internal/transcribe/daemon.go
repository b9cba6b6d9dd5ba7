package transcribe

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/sentiscribe/internal/daemon"
)

// DaemonOptions configures a Daemon provider.
type DaemonOptions struct {
	Socket  string
	Locale  string
	Device  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Daemon is a Provider backed by a speech-recognition daemon on a Unix
// socket. One connection carries commands, a second streams segment events.
type Daemon struct {
	opts DaemonOptions
	q    *queue
	dial func(string) (*daemon.Client, error)

	mu       sync.Mutex
	client   *daemon.Client
	evClient *daemon.Client
}

// NewDaemon returns a provider that connects lazily on the first Capture.
func NewDaemon(opts DaemonOptions) *Daemon {
	if opts.Socket == "" {
		opts.Socket = daemon.SocketPath()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Daemon{
		opts: opts,
		q:    newQueue(opts.Timeout),
		dial: daemon.Connect,
	}
}

// Capture implements Provider. A daemon that cannot be reached counts as no
// text; the next Capture tries again.
func (d *Daemon) Capture(ctx context.Context) (string, bool) {
	if err := d.connect(); err != nil {
		d.opts.Logger.Debug("daemon unavailable", zap.String("socket", d.opts.Socket), zap.Error(err))
		return "", false
	}
	return d.q.next(ctx)
}

// Flush implements Flusher.
func (d *Daemon) Flush() { d.q.flush() }

// Close stops recording and drops both connections.
func (d *Daemon) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.client != nil {
		if _, err := d.client.SendCommand(daemon.Command{Cmd: daemon.CmdStop}); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, d.closeLocked())
	return errors.Join(errs...)
}

func (d *Daemon) connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.evClient != nil {
		return nil
	}

	client, err := d.dial(d.opts.Socket)
	if err != nil {
		return err
	}
	evClient, err := d.dial(d.opts.Socket)
	if err != nil {
		client.Close()
		return err
	}
	if err := evClient.Subscribe(daemon.EventSegment, daemon.EventError); err != nil {
		client.Close()
		evClient.Close()
		return err
	}
	resp, err := client.SendCommand(daemon.Command{
		Cmd:    daemon.CmdStart,
		Locale: d.opts.Locale,
		Device: d.opts.Device,
	})
	if err != nil {
		client.Close()
		evClient.Close()
		return err
	}

	d.client = client
	d.evClient = evClient
	d.opts.Logger.Info("daemon recording started", zap.String("session", resp.SessionID))

	go d.readEvents(evClient)
	return nil
}

func (d *Daemon) readEvents(evClient *daemon.Client) {
	for {
		ev, err := evClient.ReadEvent()
		if err != nil {
			d.opts.Logger.Warn("daemon event stream ended", zap.Error(err))
			d.mu.Lock()
			if d.evClient == evClient {
				d.closeLocked()
			}
			d.mu.Unlock()
			return
		}

		switch ev.Event {
		case daemon.EventSegment:
			if !d.q.push(ev.Text) && ev.Text != "" {
				d.opts.Logger.Warn("dropping segment, queue full")
			}
		case daemon.EventError:
			d.opts.Logger.Warn("daemon error", zap.String("message", ev.Message))
		}
	}
}

func (d *Daemon) closeLocked() error {
	var errs []error
	if d.client != nil {
		errs = append(errs, d.client.Close())
		d.client = nil
	}
	if d.evClient != nil {
		errs = append(errs, d.evClient.Close())
		d.evClient = nil
	}
	return errors.Join(errs...)
}
