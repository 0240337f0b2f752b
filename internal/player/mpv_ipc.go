package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/PizzaHomicide/lectern/internal/log"
)

// ErrDetached is returned for commands issued after the IPC connection closed
var ErrDetached = errors.New("mpv connection closed")

// MPVEvent is a single line received from mpv.  Asynchronous events carry Event; replies to commands carry RequestID
// and Error instead.  Property changes also carry Name and ID.
type MPVEvent struct {
	Event     string          `json:"event,omitempty"`
	Name      string          `json:"name,omitempty"`
	ID        int             `json:"id,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID int64           `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// CommandError is mpv's rejection of a command
type CommandError struct {
	Command []any
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("mpv rejected %v: %s", e.Command, e.Message)
}

type mpvRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// MPVIPCClient speaks mpv's newline delimited JSON IPC protocol.  Commands are correlated with their replies through
// request_id so several can be in flight at once.
type MPVIPCClient struct {
	socketPath string

	writeMu sync.Mutex
	conn    io.ReadWriteCloser

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan MPVEvent
	closed  bool

	events chan MPVEvent
	done   chan struct{}
}

// NewMPVIPCClient creates a client for the given socket or pipe path.  Nothing is dialled until Connect.
func NewMPVIPCClient(socketPath string) *MPVIPCClient {
	return &MPVIPCClient{
		socketPath: socketPath,
		pending:    make(map[int64]chan MPVEvent),
		events:     make(chan MPVEvent, 100),
		done:       make(chan struct{}),
	}
}

// Connect dials mpv and starts reading
func (c *MPVIPCClient) Connect(ctx context.Context) error {
	conn, err := dialIPC(ctx, c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to mpv at %s: %w", c.socketPath, err)
	}
	c.attach(conn)
	return nil
}

func (c *MPVIPCClient) attach(conn io.ReadWriteCloser) {
	c.conn = conn
	go c.readEvents()
}

// WaitForConnection attempts to connect to mpv with retries while it creates its socket
func (c *MPVIPCClient) WaitForConnection(ctx context.Context, maxAttempts int, retryDelay time.Duration) error {
	log.Debug("Waiting for mpv to create socket", "socket_path", c.socketPath, "max_attempts", maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if runtime.GOOS != "windows" {
			if _, err := os.Stat(c.socketPath); errors.Is(err, os.ErrNotExist) {
				log.Trace("mpv socket does not exist yet", "attempt", attempt)
				if err := sleepCtx(ctx, retryDelay); err != nil {
					return err
				}
				continue
			}
		}

		err := c.Connect(ctx)
		if err == nil {
			log.Info("Connected to mpv", "attempt", attempt)
			return nil
		}
		log.Debug("Failed to connect to mpv", "attempt", attempt, "error", err)

		if err := sleepCtx(ctx, retryDelay); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed to connect to mpv after %d attempts", maxAttempts)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Close closes the connection.  Pending commands fail with ErrDetached.
func (c *MPVIPCClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Events returns the channel of asynchronous mpv events.  It is closed when the connection ends.
func (c *MPVIPCClient) Events() <-chan MPVEvent {
	return c.events
}

// Done is closed once the reader has stopped
func (c *MPVIPCClient) Done() <-chan struct{} {
	return c.done
}

// Command sends a command and waits for mpv's reply, returning its data
func (c *MPVIPCClient) Command(ctx context.Context, cmd ...any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed || c.conn == nil {
		c.mu.Unlock()
		return nil, ErrDetached
	}
	c.nextID++
	id := c.nextID
	reply := make(chan MPVEvent, 1)
	c.pending[id] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	data, err := json.Marshal(mpvRequest{Command: cmd, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	_, err = c.conn.Write(data)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}
	log.Trace("Sent mpv command", "command", cmd, "request_id", id)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrDetached
	case resp := <-reply:
		if resp.Error != "" && resp.Error != "success" {
			return nil, &CommandError{Command: cmd, Message: resp.Error}
		}
		return resp.Data, nil
	}
}

// SetProperty sets an mpv property
func (c *MPVIPCClient) SetProperty(ctx context.Context, name string, value any) error {
	_, err := c.Command(ctx, "set_property", name, value)
	return err
}

// ObserveProperty asks mpv to report changes of a property as property-change events
func (c *MPVIPCClient) ObserveProperty(ctx context.Context, id int, name string) error {
	_, err := c.Command(ctx, "observe_property", id, name)
	return err
}

// readEvents continuously reads lines from mpv, routing replies to their callers and events to the events channel
func (c *MPVIPCClient) readEvents() {
	defer func() {
		close(c.done)
		close(c.events)
		log.Debug("mpv event reader stopped")
	}()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		log.Trace("Raw mpv message", "data", string(line))

		var msg MPVEvent
		if err := json.Unmarshal(line, &msg); err != nil {
			log.Error("Failed to unmarshal mpv message", "error", err)
			continue
		}

		if msg.Event == "" {
			c.deliverReply(msg)
			continue
		}

		select {
		case c.events <- msg:
		default:
			// replies are read on this goroutine too, so it must never block
			log.Warn("mpv event buffer full, dropping event", "event", msg.Event, "name", msg.Name)
		}
	}

	if err := scanner.Err(); err != nil {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if !closed {
			log.Error("Error reading from mpv socket", "error", err)
		}
	}
}

func (c *MPVIPCClient) deliverReply(msg MPVEvent) {
	c.mu.Lock()
	reply, ok := c.pending[msg.RequestID]
	c.mu.Unlock()
	if !ok {
		log.Debug("Unsolicited mpv reply", "request_id", msg.RequestID, "error", msg.Error)
		return
	}
	reply <- msg
}
