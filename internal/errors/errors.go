// Package errors provides centralized error definitions and error handling utilities
// for chessbook. It defines domain sentinels, semantic error types, error
// constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures of an outer collaborator:
//   - ServiceError: a remote HTTP collaborator (recognition, detector, move
//     text extraction, remote study storage, physical board) failed
//   - StorageError: a local or shared study store failed
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// Placement parse failures are reported by position.ParseError, which unwraps
// to one of ErrInvalidRanks, ErrInvalidRow or ErrInvalidPiece.
//
// # Usage
//
//	err := errors.NewServiceError("recognize failed", cause).
//	    WithService("recognition").
//	    WithStatusCode(503)
//
//	if errors.Is(err, errors.ErrServiceUnavailable) { ... }
//	if errors.IsRetryable(err) { ... }
//
// Nothing in the pure core returns these as fatal conditions: the reducer
// turns them into a transient status string via StatusText.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Placement parsing sentinel errors
var (
	// ErrInvalidRanks indicates a placement that does not split into exactly 8 ranks.
	ErrInvalidRanks = New("INVALID_RANKS")
	// ErrInvalidRow indicates a rank whose expanded file count is not 8.
	ErrInvalidRow = New("INVALID_ROW")
	// ErrInvalidPiece indicates a character that is neither a piece letter nor a digit.
	ErrInvalidPiece = New("INVALID_PIECE")
)

// Collaborator sentinel errors
var (
	// ErrServiceUnavailable indicates that a remote service could not be reached
	// or its circuit breaker is open.
	ErrServiceUnavailable = New("service unavailable")
	// ErrBoardUnavailable indicates that the physical board service is offline.
	ErrBoardUnavailable = New("board unavailable")
	// ErrStudyNotFound indicates that no study is stored for a PDF.
	ErrStudyNotFound = New("study not found")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrUnsupported indicates an operation a backend does not offer.
	ErrUnsupported = errors.ErrUnsupported
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// ChessbookError is the base interface for all chessbook errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type ChessbookError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ServiceError represents a failed call to a remote collaborator.
//
// Example:
//
//	err := errors.NewServiceError("detect diagrams", cause).
//	    WithService("detector").
//	    WithEndpoint("/api/detect-diagrams/abc/3")
//	fmt.Println(err) // "service error [service=detector, endpoint=...]: detect diagrams: ..."
type ServiceError struct {
	baseError
	Service    string
	Endpoint   string
	StatusCode int
}

// NewServiceError creates a new ServiceError. Service errors are retryable by
// default; WithStatusCode narrows that to 5xx responses.
func NewServiceError(message string, cause error) *ServiceError {
	return &ServiceError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
	}
}

// WithService adds the collaborator name to the error context.
func (e *ServiceError) WithService(name string) *ServiceError {
	e.Service = name
	return e
}

// WithEndpoint adds the request path to the error context.
func (e *ServiceError) WithEndpoint(endpoint string) *ServiceError {
	e.Endpoint = endpoint
	return e
}

// WithStatusCode records the HTTP status. 4xx responses are not retryable.
func (e *ServiceError) WithStatusCode(code int) *ServiceError {
	e.StatusCode = code
	e.retryable = code >= 500 || code == 0
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *ServiceError) WithRetryable(r bool) *ServiceError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *ServiceError) Error() string {
	var parts []string
	if e.Service != "" {
		parts = append(parts, fmt.Sprintf("service=%s", e.Service))
	}
	if e.Endpoint != "" {
		parts = append(parts, fmt.Sprintf("endpoint=%s", e.Endpoint))
	}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	prefix := "service error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("service error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ServiceError) Is(target error) bool {
	if _, ok := target.(*ServiceError); ok {
		return true
	}
	if target == ErrServiceUnavailable && (e.StatusCode == 0 || e.StatusCode >= 500) {
		return true
	}
	return false
}

// StorageError represents a failure in a study store.
type StorageError struct {
	baseError
	Backend string
	Key     string
}

// NewStorageError creates a new StorageError.
func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithBackend adds the backend name (badger, redis, remote) to the error context.
func (e *StorageError) WithBackend(backend string) *StorageError {
	e.Backend = backend
	return e
}

// WithKey adds the storage key to the error context.
func (e *StorageError) WithKey(key string) *StorageError {
	e.Key = key
	return e
}

// Error returns the formatted error message.
func (e *StorageError) Error() string {
	var parts []string
	if e.Backend != "" {
		parts = append(parts, fmt.Sprintf("backend=%s", e.Backend))
	}
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}

	prefix := "storage error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("storage error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StorageError) Is(target error) bool {
	_, ok := target.(*StorageError)
	return ok
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("study", "3fa2c9d1")
//	fmt.Println(err) // "study '3fa2c9d1' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	return e.message
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.ResourceType == "study" && target == ErrStudyNotFound
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("bbox must have positive size").
//	    WithField("bbox.width").WithValue(0)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return target == ErrInvalidInput
}

// TimeoutError represents an operation that timed out.
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true, // Timeouts are generally retryable
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	return target == ErrTimeout
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Polling is the only retry mechanism chessbook
// has, so this is reported alongside failures rather than acted on.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var cbErr ChessbookError
	if As(err, &cbErr) {
		return cbErr.IsRetryable()
	}

	return Is(err, ErrTimeout) || Is(err, context.DeadlineExceeded)
}

// isUserFacing reports whether err's message is safe to show as a status.
func isUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var cbErr ChessbookError
	if As(err, &cbErr) {
		return cbErr.IsUserFacing()
	}
	return false
}

// IsCanceled reports whether err is a cancellation. Cancellation of a render
// or poll is a normal outcome and is never surfaced to the user.
func IsCanceled(err error) bool {
	return err != nil && (Is(err, context.Canceled) || Is(err, ErrCanceled))
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement ChessbookError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var cbErr ChessbookError
	if As(err, &cbErr) {
		return cbErr.Severity()
	}
	return SeverityError
}

// StatusText renders err as the one-line transient status shown to the user.
// Service errors name the collaborator rather than dumping the transport error.
func StatusText(err error) string {
	if err == nil {
		return ""
	}

	var svcErr *ServiceError
	if As(err, &svcErr) {
		name := svcErr.Service
		if name == "" {
			name = "service"
		}
		if svcErr.StatusCode >= 400 && svcErr.StatusCode < 500 {
			return fmt.Sprintf("%s rejected the request (HTTP %d)", name, svcErr.StatusCode)
		}
		return fmt.Sprintf("%s unavailable, will retry", name)
	}

	if Is(err, ErrTimeout) || Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	if isUserFacing(err) {
		return err.Error()
	}
	return "unexpected error: " + err.Error()
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
