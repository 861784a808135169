// Package auth provides JWT minting/verification and password hashing for
// the auth service.
//
// TOKEN MODEL:
// Two kinds of token, structurally identical, distinguished by a "purpose"
// claim:
//   - access tokens  — short-lived, authorize API calls
//   - refresh tokens — long-lived, exchangeable for a new access token
//
// A refresh token must never be accepted where an access token is expected
// (and vice versa). The codec does NOT hide this check: Verify returns the
// claims including Purpose, and every caller is expected to check it. The
// claims-out API shape makes "forgot to check the purpose" visible in review,
// whereas a boolean "is this token valid?" API would silently conflate the
// two kinds.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"<userID>","role":"USER","purpose":"access",...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The signature makes tokens tamper-evident without any DB lookup — the
// server only needs the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bbg-music/auth-service/internal/model"
)

// TokenPurpose tags a token as access or refresh.
type TokenPurpose string

const (
	PurposeAccess  TokenPurpose = "access"
	PurposeRefresh TokenPurpose = "refresh"
)

const issuer = "music-auth"

// Verification failure classes. Callers translate these into the domain
// error taxonomy; the codec itself stays HTTP-agnostic.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrTokenSignature = errors.New("auth: token signature invalid")
)

// Claims is the JWT payload. It embeds jwt.RegisteredClaims (sub, iat, exp,
// iss) and adds the two custom claims this service mints: the user's role at
// mint time and the token purpose.
//
// The role claim is a cached assertion of privilege at mint time, not a
// source of truth — mutation endpoints re-read the store.
type Claims struct {
	Username string       `json:"username"`
	Role     model.Role   `json:"role"`
	Purpose  TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies tokens. It is the only component that
// touches the signing secret.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	// now is swappable so tests can move the clock without sleeping.
	now func() time.Time
}

// NewTokenService creates a TokenService with the given HMAC secret and
// per-purpose lifetimes. The secret should be at least 32 bytes of random
// data in production, e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// ttl returns the configured lifetime for a purpose.
func (s *TokenService) ttl(purpose TokenPurpose) time.Duration {
	if purpose == PurposeRefresh {
		return s.refreshTTL
	}
	return s.accessTTL
}

// Mint creates and signs a token for the given subject.
//
// Claims: {sub=userID, username, role, purpose, iat=now, exp=now+ttl(purpose),
// iss}. The username claim is informational (audit trails, logUser in error
// envelopes); identity checks always use the subject. Signing algorithm is
// HS256 — symmetric, same key signs and verifies.
func (s *TokenService) Mint(userID, username string, role model.Role, purpose TokenPurpose) (string, error) {
	if userID == "" {
		return "", errors.New("auth: subject must not be empty")
	}

	now := s.now()
	c := Claims{
		Username: username,
		Role:     role,
		Purpose:  purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl(purpose))),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses a token string, checks its signature and expiry, and returns
// the claims.
//
// Failure classes:
//   - ErrTokenExpired   — signature fine, exp in the past
//   - ErrTokenSignature — signature does not match the secret
//   - ErrTokenMalformed — not parseable as a JWT of the expected shape
//
// VALIDATION CHECKS (performed by the jwt library):
//   - signature verifies against the secret
//   - exp is in the future (expiry claim is required, not optional)
//   - issuer matches (rejects tokens minted by other apps sharing a secret)
//   - algorithm is HS256 (prevents algorithm-confusion attacks where a
//     token claims alg=none or an asymmetric scheme)
//
// Verify does NOT check the purpose claim — that is deliberately the
// caller's job, see the package comment.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrTokenSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrTokenMalformed)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrTokenMalformed)
	}

	return c, nil
}

// ExtractSubject parses a token WITHOUT verifying its signature or expiry
// and returns the subject claim.
//
// This exists for exactly one caller: the refresh flow needs to know which
// user a token claims to belong to before it can run the full validity check
// (signature + expiry + subject-still-exists). Never treat the returned
// subject as authenticated — anyone can forge an unverified payload.
func (s *TokenService) ExtractSubject(tokenStr string) (string, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &c); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if c.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrTokenMalformed)
	}
	return c.Subject, nil
}
