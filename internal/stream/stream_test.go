package stream

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
)

func newTestServer(t *testing.T) (*Server, *Hub) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Topology.Rows, cfg.Topology.Columns = 4, 4
	exp := experiment.New(cfg, nil)
	if err := exp.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	hub := NewHub()
	return NewServer(exp, hub, 50), hub
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebsocketRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, hub := newTestServer(t)
	go hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	waitFor(t, "registration", func() bool { return hub.Clients() == 1 })

	input := map[string]any{
		"type": "input",
		"data": map[string]any{"x": 1.5, "y": 2, "grab": true},
	}
	if err := conn.WriteJSON(input); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitFor(t, "input", func() bool { return hub.Latest().Grab })
	if got := hub.Latest().Pointer; got != (cloth.Vec2{X: 1.5, Y: 2}) {
		t.Errorf("unexpected pointer %v", got)
	}

	if _, err := srv.Step(ctx); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != "state" {
		t.Fatalf("expected state message, got %q", msg.Type)
	}
	var st cloth.State
	if err := json.Unmarshal(msg.Data, &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.Tick != 1 || len(st.Particles) != 25 {
		t.Errorf("unexpected state: tick=%d particles=%d", st.Tick, len(st.Particles))
	}
}

func TestDisconnectReleasesButtons(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, hub := newTestServer(t)
	go hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitFor(t, "registration", func() bool { return hub.Clients() == 1 })

	input := map[string]any{
		"type": "input",
		"data": map[string]any{"x": 40, "y": 40, "cut": true},
	}
	if err := conn.WriteJSON(input); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitFor(t, "input", func() bool { return hub.Latest().Cut })

	conn.Close()
	waitFor(t, "unregistration", func() bool { return hub.Clients() == 0 })

	in := hub.Latest()
	if in.Cut || in.Grab {
		t.Fatalf("buttons still held after disconnect: %+v", in)
	}
	if in.Pointer != (cloth.Vec2{X: 40, Y: 40}) {
		t.Errorf("expected the pointer to be kept, got %v", in.Pointer)
	}

	for i := 0; i < 5; i++ {
		st, err := srv.Step(ctx)
		if err != nil {
			t.Fatalf("step failed: %v", err)
		}
		if st.Broken != 0 {
			t.Fatalf("tick %d: %d connectors cut with no client connected", st.Tick, st.Broken)
		}
	}
}

func TestHubShutdownReleasesButtons(t *testing.T) {
	h := NewHub()
	h.setLatest(InputData{X: 1, Y: 2, Cut: true, Grab: true}.Input())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)

	if in := h.Latest(); in.Cut || in.Grab {
		t.Errorf("buttons still held after shutdown: %+v", in)
	}
}

func TestHubDropsForSlowClients(t *testing.T) {
	h := NewHub()
	c := &Client{hub: h, send: make(chan []byte, 1)}
	h.clients[c] = true

	st := &cloth.State{Tick: 1}
	for i := 0; i < 3; i++ {
		if err := h.Publish(context.Background(), st); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}
	if len(c.send) != 1 {
		t.Errorf("expected one buffered frame, got %d", len(c.send))
	}
}

func TestHubIgnoresOtherMessages(t *testing.T) {
	h := NewHub()
	if h.Latest() != (cloth.Input{}) {
		t.Error("a new hub should report zero input")
	}
	h.setLatest(InputData{X: 3, Cut: true}.Input())
	if in := h.Latest(); !in.Cut || in.Pointer.X != 3 {
		t.Errorf("unexpected input %+v", in)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	if _, err := srv.Step(context.Background()); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
		Tick   int    `json:"tick"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Tick != 1 {
		t.Errorf("unexpected health %+v", body)
	}
}

func TestHealthzAfterReset(t *testing.T) {
	srv, hub := newTestServer(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := srv.Step(ctx); err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}

	hub.setLatest(cloth.Input{Pointer: cloth.Vec2{X: math.NaN()}})
	for i := 0; i < srv.exp.Config().Run.MaxFailures; i++ {
		if _, err := srv.Step(ctx); err == nil {
			t.Fatal("expected a non-finite pointer to fail the tick")
		}
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body struct {
		Tick     int `json:"tick"`
		Failures int `json:"failures"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Tick != 0 || body.Failures != 0 {
		t.Errorf("expected health to reflect the reset, got %+v", body)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv, hub := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	go hub.Run(ctx)
	srv.Run(ctx)

	if srv.exp.Simulator().Tick() == 0 {
		t.Error("expected the loop to step before cancellation")
	}
}

func TestRedisPublisherErrors(t *testing.T) {
	if _, err := Connect(context.Background(), "not-a-url"); err == nil {
		t.Error("expected an invalid url to fail")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	p := NewRedisPublisher(client, "clothsim:test")
	defer p.Close()

	if p.Channel() != "clothsim:test" {
		t.Errorf("unexpected channel %q", p.Channel())
	}
	if err := p.Publish(context.Background(), &cloth.State{}); err == nil {
		t.Error("expected publish to an unreachable server to fail")
	}
}
