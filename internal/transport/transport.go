package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Transport owns the single multiplexed stream connection.
type Transport interface {
	// Start opens the connection and begins delivering messages.
	// Idempotent; returns ErrStopped after Stop.
	Start(ctx context.Context) error

	// Stop tears down the connection and suppresses further reconnect
	// attempts. Idempotent. No listener is invoked after Stop returns.
	Stop() error

	// Subscribe registers a listener for decoded messages and returns its
	// unsubscribe function. Listeners run on the read goroutine; after
	// unsubscribe returns the listener is never invoked again.
	Subscribe(fn func(Message)) (unsubscribe func())

	// State returns the current connection state.
	State() State
}

// transport implements the Transport interface.
type transport struct {
	cfg    Config
	logger *slog.Logger

	state atomic.Int32

	mu        sync.RWMutex
	started   bool
	stopped   bool
	conn      *websocket.Conn
	listeners map[int]func(Message)
	nextID    int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a transport for the configured endpoint.
func New(cfg Config, logger *slog.Logger) Transport {
	if logger == nil {
		logger = slog.Default()
	}

	return &transport{
		cfg:       cfg,
		logger:    logger,
		listeners: make(map[int]func(Message)),
	}
}

// Start opens the connection and begins the run loop.
func (t *transport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return ErrStopped
	}
	if t.started {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	t.wg.Add(1)
	go t.run()

	return nil
}

// Stop tears down the connection and waits for the run loop to exit.
func (t *transport) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	started := t.started
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	t.setState(StateClosing)

	if t.cancel != nil {
		t.cancel()
	}
	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}
	if started {
		t.wg.Wait()
	}

	t.setState(StateDisconnected)
	t.logger.Info("transport stopped")
	return nil
}

// Subscribe registers a message listener.
func (t *transport) Subscribe(fn func(Message)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()

	return func() {
		// Taking the write lock waits out any dispatch in flight, so the
		// listener cannot fire after this returns.
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

// State returns the current connection state.
func (t *transport) State() State {
	return State(t.state.Load())
}

func (t *transport) setState(s State) {
	t.state.Store(int32(s))
}

// run is the connect/read/reconnect loop.
func (t *transport) run() {
	defer t.wg.Done()

	attempt := 0
	for {
		if t.ctx.Err() != nil {
			return
		}

		t.setState(StateConnecting)
		conn, err := t.dial()
		if err != nil {
			t.logger.Warn("stream connect failed",
				"error", err,
				"attempt", attempt,
			)
			t.setState(StateDisconnected)
			if !t.waitRetry(&attempt) {
				return
			}
			continue
		}

		if !t.adoptConn(conn) {
			// Stopped while dialing.
			conn.Close()
			return
		}

		t.setState(StateConnected)
		attempt = 0
		t.logger.Info("stream connected",
			"url", t.cfg.URL,
			"channels", len(t.cfg.Channels),
		)

		err = t.readLoop(conn)
		t.dropConn()

		if t.ctx.Err() != nil {
			return
		}

		t.setState(StateDisconnected)
		t.logger.Warn("stream closed, scheduling reconnect", "error", err)
		if !t.waitRetry(&attempt) {
			return
		}
	}
}

// waitRetry sleeps out the backoff before the next attempt. It returns false
// when the attempt budget is exhausted or the transport was stopped, in which
// case the run loop exits in a terminal disconnected state.
func (t *transport) waitRetry(attempt *int) bool {
	if *attempt >= t.cfg.MaxAttempts {
		t.logger.Error("reconnect attempts exhausted, not retrying",
			"attempts", *attempt,
		)
		return false
	}

	wait := backoffDelay(*attempt, t.cfg.ReconnectBase, t.cfg.ReconnectMax)
	if t.cfg.ReconnectJitter > 0 {
		wait += rand.N(t.cfg.ReconnectJitter)
	}
	*attempt++

	select {
	case <-t.ctx.Done():
		return false
	case <-time.After(wait):
		return true
	}
}

// dial opens the combined-stream connection with all channels joined onto
// the endpoint URL.
func (t *transport) dial() (*websocket.Conn, error) {
	u := t.cfg.URL
	if len(t.cfg.Channels) > 0 {
		sep := "?streams="
		if strings.Contains(u, "?") {
			sep = "&streams="
		}
		u += sep + strings.Join(t.cfg.Channels, "/")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: t.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(t.ctx, u, nil)
	return conn, err
}

// adoptConn publishes the live connection unless Stop won the race.
func (t *transport) adoptConn(conn *websocket.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.conn = conn
	return true
}

func (t *transport) dropConn() {
	t.mu.Lock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.mu.Unlock()
}

// readLoop reads frames until the connection fails, decoding and dispatching
// each one. A single malformed frame is dropped without affecting the
// connection.
func (t *transport) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()
		if err != nil {
			return err
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.logger.Warn("dropping malformed frame", "error", err)
			continue
		}
		if f.Stream == "" || len(f.Data) == 0 {
			// Control frame (subscription ack etc), nothing to deliver.
			continue
		}

		t.dispatch(Message{
			Channel:    f.Stream,
			Payload:    f.Data,
			ReceivedAt: receivedAt,
		})
	}
}

func (t *transport) dispatch(msg Message) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, fn := range t.listeners {
		fn(msg)
	}
}
