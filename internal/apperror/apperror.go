// Package apperror defines the closed set of domain failures the service can
// raise, plus the AppError wrapper that carries both a user-safe message and
// a technical diagnostic for the audit log.
//
// Every failure is classified exactly once, at the HTTP boundary
// (handler/response.go), by walking the error chain with errors.Is. The
// service layer never touches HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors — the error taxonomy.
//
// InvalidCredentials deliberately conflates "unknown username" and "wrong
// password" into one value: returning distinct errors would let a caller
// enumerate which usernames exist.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrDuplicateUsername  = errors.New("duplicate username")
	ErrNotFound           = errors.New("not found")
	ErrMalformedInput     = errors.New("malformed input")
)

// AppError pairs a user-safe message with a technical one.
//
// Message is what the caller sees. LogMessage is what goes into the response
// envelope's logMessage field (and the server log) — it may mention internal
// detail the user-facing message must not, e.g. "username unknown" vs the
// outward "invalid credentials".
type AppError struct {
	Err        error  // sentinel this error classifies as
	Message    string // human-readable, safe to show the caller
	LogMessage string // technical diagnostic for audit
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// InvalidCredentials returns the single error used for every credential
// failure. The detail parameter lands only in the technical log message.
func InvalidCredentials(detail string) *AppError {
	return &AppError{
		Err:        ErrInvalidCredentials,
		Message:    "Invalid credentials. Please verify your username and password.",
		LogMessage: detail,
	}
}

// InvalidToken covers malformed, forged, wrong-purpose and
// subject-not-found tokens. Expired tokens use TokenExpired instead so the
// user-facing message can suggest a refresh.
func InvalidToken(detail string) *AppError {
	return &AppError{
		Err:        ErrInvalidToken,
		Message:    "Invalid or expired token. Please login again.",
		LogMessage: detail,
	}
}

// TokenExpired is the expiry-specific variant of InvalidToken. Same outward
// category (unauthorized), different user guidance.
func TokenExpired(detail string) *AppError {
	return &AppError{
		Err:        ErrTokenExpired,
		Message:    "The token has expired. Please refresh it or login again.",
		LogMessage: detail,
	}
}

// DuplicateUsername reports a registration attempt for a taken username.
func DuplicateUsername(username string) *AppError {
	return &AppError{
		Err:        ErrDuplicateUsername,
		Message:    fmt.Sprintf("Username %q is already taken.", username),
		LogMessage: fmt.Sprintf("registration rejected: username %q exists", username),
	}
}

// NotFound reports an unresolvable user identifier.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		LogMessage: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// MalformedInput reports an unparseable request field. The message should
// enumerate the accepted values for the offending field.
func MalformedInput(message, detail string) *AppError {
	return &AppError{
		Err:        ErrMalformedInput,
		Message:    message,
		LogMessage: detail,
	}
}
