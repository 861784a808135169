// Package service — authentication business logic.
//
// AuthService is the business layer between the HTTP handlers and the
// repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) / PasswordService (bcrypt)
//
// Every operation is a single read-modify-write step against the credential
// store. There is no session state — two tokens minted from the same user in
// the same second are independent artifacts, and concurrent mutations of the
// same user are last-write-wins at the store.
//
// The caller's identity is always an explicit parameter. Nothing in this
// package reaches into ambient or global state to learn who is calling; the
// boundary layer authenticates the transport and passes the identity down.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bbg-music/auth-service/internal/apperror"
	"github.com/bbg-music/auth-service/internal/auth"
	"github.com/bbg-music/auth-service/internal/model"
	"github.com/bbg-music/auth-service/internal/repository"
)

// AdminUsername is the reserved username seeded at startup.
const AdminUsername = "admin"

// defaultAdminPassword is the bootstrap password for the seeded admin
// account. It exists so a fresh deployment has a way in; operators MUST
// change it immediately. This is a bootstrap seam, not a security feature.
const defaultAdminPassword = "admin"

// avatarURL builds the placeholder avatar assigned at registration.
func avatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + name
}

// AuthService orchestrates registration, login, token refresh and privilege
// mutation against the credential store, password hasher and token codec.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles a user record with a freshly issued token pair.
type AuthResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// RegisterInput carries the fields accepted at registration.
// Tier is deliberately absent: every new account starts on FREE.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     model.Role
	Country  string
}

// mintPair issues an access+refresh token pair from the user's CURRENT
// role. Tokens cache privilege at mint time; the store stays the source of
// truth.
func (s *AuthService) mintPair(user *model.User) (access, refresh string, err error) {
	access, err = s.tokens.Mint(user.ID, user.Username, user.Role, auth.PurposeAccess)
	if err != nil {
		return "", "", fmt.Errorf("service/auth: minting access token for user %s: %w", user.ID, err)
	}
	refresh, err = s.tokens.Mint(user.ID, user.Username, user.Role, auth.PurposeRefresh)
	if err != nil {
		return "", "", fmt.Errorf("service/auth: minting refresh token for user %s: %w", user.ID, err)
	}
	return access, refresh, nil
}

// Register creates a new account and returns it with a token pair.
//
// The duplicate-username pre-check here is advisory — two concurrent
// registrations can both pass it. The UNIQUE constraint in the store is the
// real backstop, and the repository reports its violation as the same
// ErrDuplicateUsername, so callers see one failure mode either way.
//
// The subscription tier is forced to FREE regardless of input, and the
// plaintext password exists only on the stack: it is hashed before the user
// struct is built and never logged.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	_, err := s.users.GetByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return nil, apperror.DuplicateUsername(in.Username)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking username %q: %w", in.Username, err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}

	user := &model.User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		Role:         role,
		Tier:         model.TierFree, // forced, regardless of input
		Country:      in.Country,
		AvatarURL:    avatarURL(in.Username),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %q: %w", in.Username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	access, refresh, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Authenticate verifies a username/password pair and issues a fresh token
// pair minted from the user's current role.
//
// ENUMERATION RESISTANCE:
// An unknown username and a wrong password both return the identical
// ErrInvalidCredentials — the response must not reveal which check failed.
// Only the technical log message (never shown to the caller) records the
// distinction.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials("authentication failed: unknown username")
		}
		return nil, fmt.Errorf("service/auth: looking up user %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials("authentication failed: password mismatch")
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	access, refresh, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
//
// Order of checks:
//  1. Extract the subject WITHOUT signature validation — to know which user
//     the token claims to belong to.
//  2. That subject must still resolve to an existing user.
//  3. The token must pass full verification (signature + expiry).
//  4. The purpose claim must be "refresh" — an access token presented here
//     is rejected even if otherwise valid.
//
// Any failure collapses into the invalid-token taxonomy; expiry keeps its
// own user-facing message. The new access token is minted from the user's
// CURRENT role, so a role change takes effect on the next refresh.
//
// NO ROTATION: the same refresh token is returned and stays usable until its
// own expiry. A deliberate, documented posture — rotating on every refresh
// would require persisting the active token per user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	subject, err := s.tokens.ExtractSubject(refreshToken)
	if err != nil {
		return nil, apperror.InvalidToken("refresh rejected: unparseable token")
	}

	user, err := s.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidToken("refresh rejected: subject no longer exists")
		}
		return nil, fmt.Errorf("service/auth: resolving refresh subject %s: %w", subject, err)
	}

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperror.TokenExpired("refresh rejected: token expired")
		}
		return nil, apperror.InvalidToken(fmt.Sprintf("refresh rejected: %v", err))
	}
	if claims.Purpose != auth.PurposeRefresh {
		return nil, apperror.InvalidToken("refresh rejected: token purpose is not refresh")
	}

	access, err := s.tokens.Mint(user.ID, user.Username, user.Role, auth.PurposeAccess)
	if err != nil {
		return nil, fmt.Errorf("service/auth: minting access token for user %s: %w", user.ID, err)
	}

	s.logger.Info("access token refreshed", slog.String("userID", user.ID))

	return &AuthResult{User: user, AccessToken: access, RefreshToken: refreshToken}, nil
}

// ChangePassword re-hashes and persists a new password after verifying the
// current one. userID is the authenticated caller, passed down explicitly by
// the boundary layer.
//
// Outstanding tokens are NOT invalidated — they are stateless and stay valid
// until natural expiry. A revocation mechanism would need a persisted
// valid-since marker on the user record, checked at verification time.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound("user", userID)
		}
		return fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, currentPassword); err != nil {
		return apperror.InvalidCredentials("password change rejected: current password mismatch")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/auth: hashing new password: %w", err)
	}

	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("service/auth: persisting password change for user %s: %w", userID, err)
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// ChangeRole sets a user's role. No privilege check happens here — the
// boundary layer decides who may call this (the HTTP router gates it on an
// ADMIN access token).
func (s *AuthService) ChangeRole(ctx context.Context, userID string, newRole model.Role) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	user.Role = newRole
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: persisting role change for user %s: %w", userID, err)
	}

	s.logger.Info("role changed",
		slog.String("userID", userID),
		slog.String("newRole", string(newRole)),
	)
	return user, nil
}

// ChangeTier sets a user's subscription tier. Same authorization posture as
// ChangeRole.
func (s *AuthService) ChangeTier(ctx context.Context, userID string, newTier model.SubscriptionTier) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	user.Tier = newTier
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: persisting tier change for user %s: %w", userID, err)
	}

	s.logger.Info("subscription tier changed",
		slog.String("userID", userID),
		slog.String("newTier", string(newTier)),
	)
	return user, nil
}

// CurrentUser resolves an authenticated identity to the full user record.
// A validly authenticated caller should always resolve, but the account may
// have been removed out-of-band, so the miss is handled rather than assumed
// away.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// SeedAdmin creates the default administrative account if no user with the
// reserved username exists. Runs once at startup. The password defaults to a
// well-known bootstrap value unless overridden; either way an operator must
// rotate it in any real deployment.
func (s *AuthService) SeedAdmin(ctx context.Context, password string) error {
	if password == "" {
		password = defaultAdminPassword
	}

	_, err := s.users.GetByUsername(ctx, AdminUsername)
	switch {
	case err == nil:
		s.logger.Info("admin user already exists")
		return nil
	case !errors.Is(err, apperror.ErrNotFound):
		return fmt.Errorf("service/auth: checking for admin user: %w", err)
	}

	s.logger.Info("admin user not found, creating default admin user")

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("service/auth: hashing admin password: %w", err)
	}

	admin := &model.User{
		Username:     AdminUsername,
		PasswordHash: hash,
		Email:        "admin@bbg.pe",
		Role:         model.RoleAdmin,
		Tier:         model.TierPremium,
		Country:      "PE",
		AvatarURL:    avatarURL("Admin"),
	}

	if err := s.users.Create(ctx, admin); err != nil {
		// A concurrent replica may have seeded it first; the UNIQUE
		// constraint turns that into a duplicate, which is fine here.
		if errors.Is(err, apperror.ErrDuplicateUsername) {
			s.logger.Info("admin user created concurrently")
			return nil
		}
		return fmt.Errorf("service/auth: creating admin user: %w", err)
	}

	s.logger.Info("default admin user created", slog.String("userID", admin.ID))
	return nil
}
