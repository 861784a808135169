package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bbg-music/auth-service/internal/apperror"
	"github.com/bbg-music/auth-service/internal/auth"
	"github.com/bbg-music/auth-service/internal/model"
	"github.com/bbg-music/auth-service/internal/service"
)

// AuthHandler exposes the authentication endpoints.
//
// ROUTES (wired in server.go):
//
//	POST /auth/register                    public
//	POST /auth/login                       public
//	POST /auth/refresh                     public
//	GET  /auth/validate                    access token required
//	GET  /auth/me                          access token required
//	POST /auth/change-password             access token required
//	PUT  /auth/{userID}/role               access token + ADMIN
//	PUT  /auth/{userID}/subscription-tier  access token + ADMIN
//
// Handlers do three things only: decode/parse the request, call the service
// with an explicit identity, serialize the envelope. Business rules live in
// the service.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// authResponse is the token-pair payload returned by register, login and
// refresh. Field names match the public API contract.
type authResponse struct {
	Token        string         `json:"token"`
	RefreshToken string         `json:"refreshToken"`
	User         model.UserView `json:"user"`
}

func toAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User.View(),
	}
}

// decodeBody decodes a JSON request body, converting decode failures into
// the malformed-input taxonomy instead of leaking parser internals.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.MalformedInput(
			"Invalid input format.",
			"request body decode failed: "+err.Error(),
		)
	}
	return nil
}

// registerRequest accepts the role as free-form text so an unknown literal
// can be rejected with the accepted-values message rather than a generic
// deserialization error.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Country  string `json:"country"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, actorFromContext(r))
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, apperror.MalformedInput(
			"Username and password are required.",
			"registration rejected: missing username or password",
		), actorFromContext(r))
		return
	}

	// Parse-or-fail boundary step: enum-shaped text becomes a typed Role
	// here, or the request dies with the accepted literal set.
	role := model.RoleUser
	if req.Role != "" {
		parsed, err := model.ParseRole(req.Role)
		if err != nil {
			writeError(w, apperror.MalformedInput(err.Error(),
				"registration rejected: bad role literal "+req.Role,
			), actorFromContext(r))
			return
		}
		role = parsed
	}

	res, err := h.service.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     role,
		Country:  req.Country,
	})
	if err != nil {
		writeError(w, err, actorFromContext(r))
		return
	}

	writeSuccess(w, "User registered successfully", toAuthResponse(res))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin validates credentials and returns a fresh token pair.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, actorFromContext(r))
		return
	}

	res, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err, actorFromContext(r))
		return
	}

	writeSuccess(w, "Authentication successful", toAuthResponse(res))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh exchanges a refresh token for a new access token. The same
// refresh token comes back in the payload — no rotation.
//
// HTTP: POST /auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, actorFromContext(r))
		return
	}

	res, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err, actorFromContext(r))
		return
	}

	writeSuccess(w, "Token refreshed successfully", toAuthResponse(res))
}

// HandleValidate confirms the presented access token is valid. The work is
// all in the RequireAuth middleware — reaching this handler IS the proof.
//
// HTTP: GET /auth/validate
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, "Token validated successfully", "Valid token")
}

// HandleMe returns the authenticated caller's profile.
//
// HTTP: GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, handled defensively.
		writeError(w, apperror.InvalidToken("no identity in request context"), anonymousUser)
		return
	}

	user, err := h.service.CurrentUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err, id.Username)
		return
	}

	writeSuccess(w, "User details retrieved successfully", user.View())
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword updates the caller's own password.
//
// HTTP: POST /auth/change-password
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidToken("no identity in request context"), anonymousUser)
		return
	}

	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, id.Username)
		return
	}

	if req.NewPassword == "" {
		writeError(w, apperror.MalformedInput(
			"New password is required.",
			"password change rejected: empty new password",
		), id.Username)
		return
	}

	if err := h.service.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err, id.Username)
		return
	}

	// No payload: the data field is omitted from the envelope entirely.
	writeSuccess(w, "Password updated successfully", nil)
}

type changeRoleRequest struct {
	NewRole string `json:"newRole"`
}

// HandleChangeRole sets another user's role.
//
// HTTP: PUT /auth/{userID}/role (admin only — enforced by middleware, the
// service itself performs no privilege check)
func (h *AuthHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r)

	var req changeRoleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, actor)
		return
	}

	newRole, err := model.ParseRole(req.NewRole)
	if err != nil {
		writeError(w, apperror.MalformedInput(err.Error(),
			"role change rejected: bad role literal "+req.NewRole,
		), actor)
		return
	}

	user, err := h.service.ChangeRole(r.Context(), chi.URLParam(r, "userID"), newRole)
	if err != nil {
		writeError(w, err, actor)
		return
	}

	writeSuccess(w, "User role updated successfully", user.View())
}

type changeTierRequest struct {
	NewTier string `json:"newTier"`
}

// HandleChangeTier sets another user's subscription tier.
//
// HTTP: PUT /auth/{userID}/subscription-tier (admin only)
func (h *AuthHandler) HandleChangeTier(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r)

	var req changeTierRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, actor)
		return
	}

	newTier, err := model.ParseSubscriptionTier(req.NewTier)
	if err != nil {
		writeError(w, apperror.MalformedInput(err.Error(),
			"tier change rejected: bad tier literal "+req.NewTier,
		), actor)
		return
	}

	user, err := h.service.ChangeTier(r.Context(), chi.URLParam(r, "userID"), newTier)
	if err != nil {
		writeError(w, err, actor)
		return
	}

	writeSuccess(w, "User subscription tier updated successfully", user.View())
}
