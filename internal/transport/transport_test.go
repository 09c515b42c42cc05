package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestBackoffDelay_Sequence(t *testing.T) {
	base := 1 * time.Second
	limit := 15 * time.Second

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		15 * time.Second,
		15 * time.Second,
	}

	for attempt, wantDelay := range want {
		if got := backoffDelay(attempt, base, limit); got != wantDelay {
			t.Errorf("backoffDelay(%d) = %v, want %v", attempt, got, wantDelay)
		}
	}
}

func TestBackoffDelay_OverflowClampsToLimit(t *testing.T) {
	if got := backoffDelay(100, time.Second, 15*time.Second); got != 15*time.Second {
		t.Errorf("backoffDelay(100) = %v, want 15s", got)
	}
}

// wsTestServer runs handler for every upgraded connection.
func wsTestServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.Channels = []string{"!ticker@arr", "!markPrice@arr"}
	cfg.ReconnectBase = 5 * time.Millisecond
	cfg.ReconnectMax = 20 * time.Millisecond
	cfg.ReconnectJitter = time.Millisecond
	return cfg
}

func TestTransport_DeliversDecodedMessages(t *testing.T) {
	frames := []string{
		`{not json`,                      // malformed, must be dropped
		`{"result":null,"id":1}`,         // control frame, no stream field
		`{"stream":"!ticker@arr","data":[{"s":"BTCUSDT","c":"50000"}]}`,
		`{"stream":"!markPrice@arr","data":[{"s":"BTCUSDT","p":"50001"}]}`,
	}

	srv := wsTestServer(t, func(conn *websocket.Conn) {
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		conn.ReadMessage() // hold the connection open until the client closes
	})

	tr := New(testConfig(wsURL(srv)), nil)

	got := make(chan Message, 8)
	tr.Subscribe(func(msg Message) { got <- msg })

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer tr.Stop()

	want := []string{"!ticker@arr", "!markPrice@arr"}
	for _, channel := range want {
		select {
		case msg := <-got:
			if msg.Channel != channel {
				t.Errorf("Channel = %q, want %q", msg.Channel, channel)
			}
			if !strings.Contains(string(msg.Payload), "BTCUSDT") {
				t.Errorf("Payload = %s, want symbol present", msg.Payload)
			}
			if msg.ReceivedAt.IsZero() {
				t.Error("ReceivedAt is zero")
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for %s message", channel)
		}
	}

	// The malformed and control frames must not have produced messages.
	select {
	case msg := <-got:
		t.Errorf("unexpected extra message on %q", msg.Channel)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTransport_UnsubscribeStopsDelivery(t *testing.T) {
	send := make(chan string)
	srv := wsTestServer(t, func(conn *websocket.Conn) {
		for f := range send {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
	})
	defer close(send)

	tr := New(testConfig(wsURL(srv)), nil)

	var first atomic.Int32
	unsubscribe := tr.Subscribe(func(Message) { first.Add(1) })

	second := make(chan struct{}, 4)
	tr.Subscribe(func(Message) { second <- struct{}{} })

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer tr.Stop()

	frame := `{"stream":"!ticker@arr","data":[{"s":"ETHUSDT"}]}`

	send <- frame
	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for first delivery")
	}

	unsubscribe()

	send <- frame
	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for second delivery")
	}

	if got := first.Load(); got != 1 {
		t.Errorf("unsubscribed listener fired %d times, want 1", got)
	}
}

func TestTransport_ReconnectsAfterClose(t *testing.T) {
	var conns atomic.Int32
	srv := wsTestServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)
		frame := `{"stream":"!ticker@arr","data":[{"s":"BTCUSDT"}]}`
		conn.WriteMessage(websocket.TextMessage, []byte(frame))
		if n == 1 {
			return // abnormal close, client must reconnect
		}
		conn.ReadMessage()
	})

	tr := New(testConfig(wsURL(srv)), nil)

	got := make(chan Message, 4)
	tr.Subscribe(func(msg Message) { got <- msg })

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer tr.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for message %d", i+1)
		}
	}

	if n := conns.Load(); n < 2 {
		t.Errorf("connection count = %d, want >= 2", n)
	}

	// The second connection stays healthy, so the transport settles connected.
	deadline := time.Now().Add(time.Second)
	for tr.State() != StateConnected && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if tr.State() != StateConnected {
		t.Errorf("State() = %v, want connected", tr.State())
	}
}

func TestTransport_TerminalAfterMaxAttempts(t *testing.T) {
	cfg := testConfig("ws://127.0.0.1:1")
	cfg.ReconnectBase = time.Millisecond
	cfg.ReconnectMax = 2 * time.Millisecond
	cfg.MaxAttempts = 2

	tr := New(cfg, nil)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Two attempts at millisecond backoff finish quickly; the transport must
	// settle disconnected without retrying further and Stop must not hang.
	time.Sleep(500 * time.Millisecond)
	if got := tr.State(); got != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", got)
	}

	done := make(chan struct{})
	go func() {
		tr.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestTransport_StopIdempotentAndFinal(t *testing.T) {
	cfg := testConfig("ws://127.0.0.1:1")
	cfg.ReconnectBase = time.Hour // park the run loop in backoff
	cfg.ReconnectMax = time.Hour

	tr := New(cfg, nil)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := tr.Stop(); err != nil {
		t.Errorf("Stop() = %v, want nil", err)
	}
	if err := tr.Stop(); err != nil {
		t.Errorf("second Stop() = %v, want nil", err)
	}
	if err := tr.Start(context.Background()); err != ErrStopped {
		t.Errorf("Start after Stop = %v, want ErrStopped", err)
	}
	if got := tr.State(); got != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", got)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateClosing, "closing"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
