// Package handler contains the HTTP boundary: request decoding, the response
// envelope, and the mapping from domain errors to HTTP status codes.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bbg-music/auth-service/internal/apperror"
	"github.com/bbg-music/auth-service/internal/auth"
)

// Status is the outward result category carried by every response.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// anonymousUser is the audit sentinel for failures that occur before (or
// without) authentication.
const anonymousUser = "ANONYMOUS"

// Response is the envelope every endpoint serializes, success or failure.
//
// Data is omitted entirely when an operation carries no payload (e.g. a
// password change) — an absent field, not an explicit null, so clients can
// distinguish "nothing to return" from "returned a null value".
//
// LogUser and LogMessage are only populated on errors: the acting principal
// (or ANONYMOUS) and the technical diagnostic, kept for audit trails and
// never a substitute for the user-safe Message.
type Response struct {
	Status     Status    `json:"status"`
	Message    string    `json:"message"`
	Data       any       `json:"data,omitempty"`
	LogUser    string    `json:"logUser,omitempty"`
	LogMessage string    `json:"logMessage,omitempty"`
	LogDate    time.Time `json:"logDate"`
}

// writeJSON sends a JSON response with the given status code. Headers must
// be set before the first Write — hence header, WriteHeader, body, in that
// order.
func writeJSON(w http.ResponseWriter, status int, body Response) {
	body.LogDate = time.Now().UTC()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already gone; logging is all that's left.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeSuccess sends a success envelope. Pass nil data to omit the payload.
func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// writeError classifies a domain error and sends the matching envelope.
//
// actor is the acting principal's username — callers resolve it from the
// request context (actorFromContext) so even pre-authentication failures
// carry an identity (ANONYMOUS) for the audit trail.
//
// OUTWARD MAPPING:
//
//	invalid credentials, invalid/expired token → 401 unauthorized
//	duplicate username, not found, malformed input → 400 bad request
//	anything unclassified → 500 with a generic user message
//
// Expired tokens share the unauthorized category with other token failures
// but keep their own user-facing message, because "refresh or re-login" is
// actionable in a way "re-login" alone is not. Not-found deliberately maps
// to 400, not 404 — an unknown userId on a mutation is treated as a
// validation failure of the request, the same as the other bad-request
// cases.
func writeError(w http.ResponseWriter, err error, actor string) {
	if actor == "" {
		actor = anonymousUser
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrInvalidCredentials),
			errors.Is(err, apperror.ErrInvalidToken),
			errors.Is(err, apperror.ErrTokenExpired):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrDuplicateUsername),
			errors.Is(err, apperror.ErrNotFound),
			errors.Is(err, apperror.ErrMalformedInput):
			status = http.StatusBadRequest
		}

		writeJSON(w, status, Response{
			Status:     StatusError,
			Message:    appErr.Message,
			LogUser:    actor,
			LogMessage: appErr.LogMessage,
		})
		return
	}

	// Unclassified failure: the technical detail goes to the envelope's log
	// fields and the server log, the user-facing message stays generic.
	slog.Error("unclassified error", slog.String("error", err.Error()), slog.String("actor", actor))
	writeJSON(w, http.StatusInternalServerError, Response{
		Status:     StatusError,
		Message:    "An internal server error occurred.",
		LogUser:    actor,
		LogMessage: err.Error(),
	})
}

// actorFromContext names the acting principal for audit fields, falling back
// to the ANONYMOUS sentinel on unauthenticated requests.
func actorFromContext(r *http.Request) string {
	if id, ok := auth.IdentityFromContext(r.Context()); ok && id.Username != "" {
		return id.Username
	}
	return anonymousUser
}

// Unauthorized adapts writeError for the RequireAuth middleware, translating
// codec-level failures into the domain taxonomy.
func Unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, apperror.TokenExpired(err.Error()), actorFromContext(r))
	default:
		writeError(w, apperror.InvalidToken("authorization rejected: "+err.Error()), actorFromContext(r))
	}
}

// Forbidden is the RequireAdmin middleware's rejection response.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusForbidden, Response{
		Status:     StatusError,
		Message:    "You are not allowed to perform this operation.",
		LogUser:    actorFromContext(r),
		LogMessage: "admin role required",
	})
}
