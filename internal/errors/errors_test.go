package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ServiceError Tests
// -----------------------------------------------------------------------------

func TestServiceError_Error(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewServiceError("recognize region", cause).
		WithService("recognition").
		WithEndpoint("/api/recognize-region").
		WithStatusCode(503)

	want := "service error [service=recognition, endpoint=/api/recognize-region, status=503]: recognize region: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestServiceError_Retryable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"transport failure", 0, true},
		{"server error", 502, true},
		{"bad request", 400, false},
		{"not found", 404, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewServiceError("call", nil).WithStatusCode(tt.status)
			if got := IsRetryable(err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceError_IsUnavailable(t *testing.T) {
	wrapped := fmt.Errorf("poll: %w", NewServiceError("status", nil).WithService("board"))
	if !Is(wrapped, ErrServiceUnavailable) {
		t.Error("expected transport failure to match ErrServiceUnavailable")
	}

	rejected := NewServiceError("status", nil).WithStatusCode(422)
	if Is(rejected, ErrServiceUnavailable) {
		t.Error("4xx response should not match ErrServiceUnavailable")
	}
}

// -----------------------------------------------------------------------------
// StorageError Tests
// -----------------------------------------------------------------------------

func TestStorageError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("save study", cause).WithBackend("badger").WithKey("study/abc")

	want := "storage error [backend=badger, key=study/abc]: save study: disk full"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, cause) {
		t.Error("expected storage error to unwrap to its cause")
	}
	var target *StorageError
	if !As(fmt.Errorf("wrapped: %w", err), &target) {
		t.Error("expected As to find StorageError")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("study", "abc123")
	if err.Error() != "study 'abc123' not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !Is(err, ErrStudyNotFound) {
		t.Error("study NotFoundError should match ErrStudyNotFound")
	}
	if Is(NewNotFoundError("game", "g1"), ErrStudyNotFound) {
		t.Error("game NotFoundError should not match ErrStudyNotFound")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("bbox must have positive size").WithField("bbox.width").WithValue(0)

	want := "validation error [field=bbox.width, value=0]: bbox must have positive size"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
	if IsRetryable(err) {
		t.Error("validation errors are not retryable")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("get board fen", 2*time.Second)
	if !Is(err, ErrTimeout) {
		t.Error("TimeoutError should match ErrTimeout")
	}
	if !IsRetryable(err) {
		t.Error("TimeoutError should be retryable")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsCanceled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, true},
		{"wrapped canceled", fmt.Errorf("render: %w", context.Canceled), true},
		{"sentinel", ErrCanceled, true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCanceled(tt.err); got != tt.want {
				t.Errorf("IsCanceled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	if got := GetSeverity(nil); got != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v", got)
	}
	if got := GetSeverity(errors.New("plain")); got != SeverityError {
		t.Errorf("GetSeverity(plain) = %v", got)
	}
	if got := GetSeverity(NewServiceError("x", nil)); got != SeverityWarning {
		t.Errorf("GetSeverity(service) = %v", got)
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"service down", NewServiceError("x", nil).WithService("board"), "board unavailable, will retry"},
		{"service rejected", NewServiceError("x", nil).WithService("recognition").WithStatusCode(400), "recognition rejected the request (HTTP 400)"},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), "request timed out"},
		{"validation", NewValidationError("bad bbox"), "validation error: bad bbox"},
		{"wrapped not found", Wrap(NewNotFoundError("study", "abc"), "load"), "load: study 'abc' not found"},
		{"internal", errors.New("boom"), "unexpected error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusText(tt.err); got != tt.want {
				t.Errorf("StatusText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	err := Wrapf(ErrStudyNotFound, "pdf %q", "abc")
	if !Is(err, ErrStudyNotFound) {
		t.Error("Wrapf should preserve the chain")
	}
	if err.Error() != `pdf "abc": study not found` {
		t.Errorf("Error() = %q", err.Error())
	}
}
