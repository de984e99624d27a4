package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError carries a user-facing message plus an optional remedy.
// The wrapped cause is kept for logs only.
type UserFriendlyError struct {
	Message    string
	Suggestion string
	Details    error
	// Notice marks informational outcomes (e.g. the backend confirming a
	// user-requested cancel) that should not be styled as failures.
	Notice bool
}

func (e *UserFriendlyError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Suggestion != "" {
		sb.WriteString("\n\nHow to fix:\n")
		sb.WriteString(e.Suggestion)
	}
	return sb.String()
}

func (e *UserFriendlyError) Unwrap() error { return e.Details }

// Validation reports bad input caught before any backend contact.
func Validation(message string) *UserFriendlyError {
	return &UserFriendlyError{Message: message}
}

// StatusCancelledByUser is the backend status meaning the user cancelled the
// operation; it is reported as a notice, not a failure.
const StatusCancelledByUser = 499

// BackendRejection reports a non-success HTTP status from the backend.
func BackendRejection(op string, status int) *UserFriendlyError {
	if status == StatusCancelledByUser {
		return &UserFriendlyError{
			Message: fmt.Sprintf("%s cancelled", op),
			Notice:  true,
		}
	}
	return &UserFriendlyError{
		Message:    fmt.Sprintf("%s failed (backend returned %d)", op, status),
		Suggestion: "Check that the downloader backend is running and up to date",
	}
}

// Network wraps a transport failure on a command request with hints drawn from
// the error text.
func Network(op string, err error) *UserFriendlyError {
	msg := fmt.Sprintf("%s failed: cannot reach the backend", op)
	suggestion := "Check that the backend is running on the configured address"
	if err != nil {
		s := err.Error()
		if strings.Contains(s, "connection refused") {
			suggestion = "The backend is not listening. Start it, or fix backend.http_base in the config"
		}
		if strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded") {
			msg = fmt.Sprintf("%s timed out", op)
		}
	}
	return &UserFriendlyError{Message: msg, Suggestion: suggestion, Details: err}
}

// IsNotice reports whether err is an informational, non-failure outcome.
func IsNotice(err error) bool {
	fe, ok := err.(*UserFriendlyError)
	return ok && fe.Notice
}
