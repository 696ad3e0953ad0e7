package board

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Iron-Ham/chessbook/internal/logging"
	"github.com/Iron-Ham/chessbook/internal/position"
)

// Mock is an in-memory stand-in for the board service. A placement pushed
// with force is shown at once; one pushed without force becomes the target
// the (imaginary) user still has to set up, and reads keep returning the
// old placement until Apply is called.
type Mock struct {
	mu        sync.Mutex
	placement position.Placement
	target    position.Placement
	available bool
	connected bool
	autoApply bool
	logger    *logging.Logger
}

// NewMock returns a connected mock board showing the starting placement.
func NewMock(logger *logging.Logger) *Mock {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Mock{
		placement: position.StartingPlacement,
		available: true,
		connected: true,
		logger:    logger.With("component", "mock-board"),
	}
}

// SetConnected simulates attaching or detaching the board.
func (m *Mock) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

// SetAutoApply makes unforced pushes show at once, as if applied by hand
// immediately.
func (m *Mock) SetAutoApply(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoApply = on
}

// Place simulates the user moving pieces by hand.
func (m *Mock) Place(pl position.Placement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placement = pl
}

// Apply sets up the last unforced target, as a user following the board's
// lights would.
func (m *Mock) Apply() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.target != "" {
		m.placement = m.target
		m.target = ""
	}
}

// Placement returns what the board currently shows.
func (m *Mock) Placement() position.Placement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.placement
}

// Handler returns the HTTP API of the board service.
func (m *Mock) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(m.logRequests)

	r.Get("/api/status", m.handleStatus)
	r.Route("/api/state/fen", func(r chi.Router) {
		r.Use(m.requireConnected)
		r.Get("/", m.handleGetFen)
		r.Post("/", m.handleSetFen)
	})
	r.Put("/api/mock/connected/{state}", m.handleConnected)
	return r
}

func (m *Mock) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		m.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (m *Mock) requireConnected(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		connected := m.connected
		m.mu.Unlock()
		if !connected {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "board not connected"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Mock) handleStatus(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	st := Status{Available: m.available, Connected: m.connected}
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func (m *Mock) handleGetFen(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"fen": string(m.Placement())})
}

func (m *Mock) handleSetFen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FEN   string `json:"fen"`
		Force bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
		return
	}
	pos, err := position.ParsePosition(req.FEN)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	pl := pos.Placement()
	if err := position.ValidateForBoard(pl); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	m.mu.Lock()
	if req.Force || m.autoApply {
		m.placement = pl
		m.target = ""
	} else {
		m.target = pl
	}
	shown := m.placement
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, SyncResult{FEN: string(pl), DriverSynced: position.SamePlacement(shown, pl)})
}

func (m *Mock) handleConnected(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "state") {
	case "on":
		m.SetConnected(true)
	case "off":
		m.SetConnected(false)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "state must be on or off"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
