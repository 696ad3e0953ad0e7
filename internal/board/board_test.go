package board

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/position"
)

const afterE4 position.Placement = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR"

func newMockClient(t *testing.T) (*Client, *Mock) {
	t.Helper()
	mock := NewMock(nil)
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL}), mock
}

func TestStatus(t *testing.T) {
	c, mock := newMockClient(t)

	st, err := c.Status(t.Context())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !st.Available || !st.Connected {
		t.Errorf("Status() = %+v, want available and connected", st)
	}

	mock.SetConnected(false)
	st, err = c.Status(t.Context())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !st.Available || st.Connected {
		t.Errorf("Status() = %+v, want available but not connected", st)
	}
}

func TestPosition(t *testing.T) {
	c, mock := newMockClient(t)
	mock.Place(afterE4)

	pos, err := c.Position(t.Context())
	if err != nil {
		t.Fatalf("Position() error = %v", err)
	}
	if pos.Placement() != afterE4 {
		t.Errorf("Position() placement = %q, want %q", pos.Placement(), afterE4)
	}
	if position.Turn(pos) != position.White {
		t.Errorf("Position() turn = %v, want white default", position.Turn(pos))
	}
}

func TestPosition_Disconnected(t *testing.T) {
	c, mock := newMockClient(t)
	mock.SetConnected(false)

	_, err := c.Position(t.Context())
	var svcErr *errors.ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Position() error = %v, want 503 service error", err)
	}
	if !strings.Contains(err.Error(), "board not connected") {
		t.Errorf("error = %q, want the service detail", err.Error())
	}
}

func TestSetPlacement(t *testing.T) {
	tests := []struct {
		name       string
		force      bool
		wantShown  position.Placement
		wantSynced bool
	}{
		{name: "forced", force: true, wantShown: afterE4, wantSynced: true},
		{name: "waits for the user", force: false, wantShown: position.StartingPlacement, wantSynced: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newMockClient(t)
			res, err := c.SetPlacement(t.Context(), afterE4, tt.force)
			if err != nil {
				t.Fatalf("SetPlacement() error = %v", err)
			}
			if res.DriverSynced != tt.wantSynced {
				t.Errorf("DriverSynced = %v, want %v", res.DriverSynced, tt.wantSynced)
			}
			if got := mock.Placement(); got != tt.wantShown {
				t.Errorf("board shows %q, want %q", got, tt.wantShown)
			}
			mock.Apply()
			if got := mock.Placement(); got != afterE4 {
				t.Errorf("after Apply board shows %q, want %q", got, afterE4)
			}
		})
	}
}

func TestSetPlacement_AutoApply(t *testing.T) {
	c, mock := newMockClient(t)
	mock.SetAutoApply(true)

	res, err := c.SetPlacement(t.Context(), afterE4, false)
	if err != nil {
		t.Fatalf("SetPlacement() error = %v", err)
	}
	if !res.DriverSynced {
		t.Error("auto-applied push should report the board in sync")
	}
	if got := mock.Placement(); got != afterE4 {
		t.Errorf("board shows %q, want %q", got, afterE4)
	}
}

func TestSetPlacement_Invalid(t *testing.T) {
	c, mock := newMockClient(t)
	_, err := c.SetPlacement(t.Context(), "8/8/8/8/8/8/8/8", true)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("SetPlacement() error = %v, want validation error", err)
	}
	if mock.Placement() != position.StartingPlacement {
		t.Error("invalid placement reached the board")
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url})
	for range 3 {
		if _, err := c.Status(t.Context()); !errors.Is(err, errors.ErrBoardUnavailable) {
			t.Fatalf("Status() error = %v, want ErrBoardUnavailable", err)
		}
	}
	// The breaker is open now and still reports the board as unavailable.
	_, err := c.Status(t.Context())
	if !errors.Is(err, errors.ErrBoardUnavailable) {
		t.Errorf("Status() with open breaker error = %v", err)
	}
	if got := errors.StatusText(err); got != "board unavailable, will retry" {
		t.Errorf("StatusText() = %q", got)
	}
}

func TestMockConnectedEndpoint(t *testing.T) {
	mock := NewMock(nil)
	h := mock.Handler()

	for _, tt := range []struct {
		path          string
		wantStatus    int
		wantConnected bool
	}{
		{"/api/mock/connected/off", http.StatusNoContent, false},
		{"/api/mock/connected/bogus", http.StatusBadRequest, false},
		{"/api/mock/connected/on", http.StatusNoContent, true},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, tt.path, nil))
		if rec.Code != tt.wantStatus {
			t.Errorf("PUT %s = %d, want %d", tt.path, rec.Code, tt.wantStatus)
		}
		mock.mu.Lock()
		got := mock.connected
		mock.mu.Unlock()
		if got != tt.wantConnected {
			t.Errorf("after PUT %s connected = %v, want %v", tt.path, got, tt.wantConnected)
		}
	}
}
