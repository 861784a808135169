// Package model defines the data structures used throughout the application.
package model

import (
	"fmt"
	"time"
)

// Role is a user's privilege level.
//
// WHY A STRING TYPE (not iota constants)?
// The role travels inside JWT claims and JSON request/response bodies as the
// literal strings "USER"/"ADMIN". Keeping the Go representation identical to
// the wire representation means no translation table and no risk of an
// integer constant silently reordering between releases.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts free-form request text into a Role.
// The error message enumerates the accepted literals so the boundary layer
// can surface it to callers verbatim.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role provided. Accepted values are: [USER, ADMIN]")
}

// SubscriptionTier is a user's subscription level.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "FREE"
	TierPremium SubscriptionTier = "PREMIUM"
)

// ParseSubscriptionTier converts free-form request text into a SubscriptionTier.
func ParseSubscriptionTier(s string) (SubscriptionTier, error) {
	switch SubscriptionTier(s) {
	case TierFree, TierPremium:
		return SubscriptionTier(s), nil
	}
	return "", fmt.Errorf("invalid subscription tier provided. Accepted values are: [FREE, PREMIUM]")
}

// User represents a registered account in the credential store.
//
// ID is generated internally (xid) and immutable. Username is unique —
// enforced by a UNIQUE constraint in the store and pre-checked at
// registration. PasswordHash is a bcrypt hash and is NEVER serialized to
// JSON (`json:"-"`); API responses use the UserView projection instead.
type User struct {
	ID           string           `json:"id"               db:"id"`
	Username     string           `json:"username"         db:"username"`
	PasswordHash string           `json:"-"                db:"password_hash"`
	Email        string           `json:"email"            db:"email"`
	Role         Role             `json:"role"             db:"role"`
	Tier         SubscriptionTier `json:"subscriptionTier" db:"subscription_tier"`
	Country      string           `json:"country"          db:"country"`
	AvatarURL    string           `json:"avatarUrl"        db:"avatar_url"`
	CreatedAt    time.Time        `json:"createdAt"        db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt"        db:"updated_at"`
}

// UserView is the outward projection of a User — everything except the
// password hash and timestamps. This is what the auth endpoints return.
type UserView struct {
	ID        string           `json:"id"`
	Username  string           `json:"username"`
	Email     string           `json:"email"`
	Role      Role             `json:"role"`
	Tier      SubscriptionTier `json:"subscriptionTier"`
	Country   string           `json:"country"`
	AvatarURL string           `json:"avatarUrl"`
}

// View projects a User into its outward representation.
func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Tier:      u.Tier,
		Country:   u.Country,
		AvatarURL: u.AvatarURL,
	}
}
