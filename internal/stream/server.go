package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/experiment"
)

const shutdownTimeout = 5 * time.Second

// Server owns one experiment and steps it on a fixed clock, feeding it the
// hub's latest input and publishing every state. Only the loop goroutine
// touches the simulator.
type Server struct {
	exp        *experiment.Experiment
	hub        *Hub
	publishers []Publisher
	interval   time.Duration

	mu       sync.RWMutex
	state    *cloth.State
	failures int
}

// NewServer creates a server stepping tickRate times per second.
func NewServer(exp *experiment.Experiment, hub *Hub, tickRate int) *Server {
	if tickRate <= 0 {
		tickRate = 50
	}
	return &Server{
		exp:        exp,
		hub:        hub,
		publishers: []Publisher{hub},
		interval:   time.Second / time.Duration(tickRate),
		state:      exp.Simulator().State(),
	}
}

func (s *Server) AddPublisher(p Publisher) {
	s.publishers = append(s.publishers, p)
}

// Step advances one tick. After MaxFailures consecutive failed ticks the
// cloth is reset.
func (s *Server) Step(ctx context.Context) (*cloth.State, error) {
	st, err := s.exp.Step(s.hub.Latest())
	if err != nil {
		s.mu.Lock()
		s.failures++
		reset := s.failures >= s.exp.Config().Run.MaxFailures
		if reset {
			s.failures = 0
		}
		s.mu.Unlock()

		log.Printf("[stream] step failed: %v", err)
		if reset {
			log.Printf("[stream] cloth unstable, resetting")
			s.exp.Simulator().Reset()
			s.mu.Lock()
			s.state = s.exp.Simulator().State()
			s.mu.Unlock()
		}
		return nil, err
	}

	s.mu.Lock()
	s.state = st
	s.failures = 0
	s.mu.Unlock()

	for _, p := range s.publishers {
		if err := p.Publish(ctx, st); err != nil && ctx.Err() == nil {
			log.Printf("[stream] publish: %v", err)
		}
	}
	return st, nil
}

// Run steps on the ticker until ctx is done.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Step(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.ServeWS)
	mux.HandleFunc("/healthz", s.health)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	body := map[string]any{
		"status":   "ok",
		"tick":     s.state.Tick,
		"broken":   s.state.Broken,
		"failures": s.failures,
		"clients":  s.hub.Clients(),
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// ListenAndServe runs the hub, the tick loop and the HTTP server until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go s.hub.Run(ctx)
	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[stream] shutdown: %v", err)
		}
	}()

	log.Printf("[stream] listening on %s (ws endpoint: /ws)", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
