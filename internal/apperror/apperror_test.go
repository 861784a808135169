package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "InvalidCredentials wraps ErrInvalidCredentials",
			err:       InvalidCredentials("password mismatch"),
			target:    ErrInvalidCredentials,
			wantMatch: true,
		},
		{
			name:      "InvalidToken wraps ErrInvalidToken",
			err:       InvalidToken("bad signature"),
			target:    ErrInvalidToken,
			wantMatch: true,
		},
		{
			name:      "TokenExpired wraps ErrTokenExpired",
			err:       TokenExpired("exp in the past"),
			target:    ErrTokenExpired,
			wantMatch: true,
		},
		{
			name:      "DuplicateUsername wraps ErrDuplicateUsername",
			err:       DuplicateUsername("alice"),
			target:    ErrDuplicateUsername,
			wantMatch: true,
		},
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "MalformedInput wraps ErrMalformedInput",
			err:       MalformedInput("bad role", "detail"),
			target:    ErrMalformedInput,
			wantMatch: true,
		},
		{
			name:      "TokenExpired does NOT match ErrInvalidToken",
			err:       TokenExpired("exp in the past"),
			target:    ErrInvalidToken,
			wantMatch: false,
		},
		{
			name:      "NotFound does NOT match ErrInvalidCredentials",
			err:       NotFound("user", "abc123"),
			target:    ErrInvalidCredentials,
			wantMatch: false,
		},
		{
			name:      "classification survives fmt.Errorf wrapping",
			err:       fmt.Errorf("service/auth: %w", InvalidCredentials("x")),
			target:    ErrInvalidCredentials,
			wantMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

// The user-safe message and the technical log message serve different
// audiences and must stay separate.
func TestMessagesStaySeparate(t *testing.T) {
	err := InvalidCredentials("authentication failed: unknown username")

	if err.Error() != "Invalid credentials. Please verify your username and password." {
		t.Errorf("Error() = %q leaks or mangles the user-facing message", err.Error())
	}
	if err.LogMessage != "authentication failed: unknown username" {
		t.Errorf("LogMessage = %q, want the technical detail", err.LogMessage)
	}
}

func TestErrorsAsExtractsAppError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", DuplicateUsername("alice"))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As failed to extract *AppError from a wrapped chain")
	}
	if appErr.Message == "" || appErr.LogMessage == "" {
		t.Error("extracted AppError is missing its messages")
	}
}
