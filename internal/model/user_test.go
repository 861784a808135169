package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"USER", "ADMIN"} {
		role, err := ParseRole(valid)
		if err != nil {
			t.Errorf("ParseRole(%q) error = %v", valid, err)
		}
		if string(role) != valid {
			t.Errorf("ParseRole(%q) = %q", valid, role)
		}
	}

	for _, invalid := range []string{"", "user", "SUPERUSER", "Admin"} {
		_, err := ParseRole(invalid)
		if err == nil {
			t.Errorf("ParseRole(%q) should fail", invalid)
			continue
		}
		if !strings.Contains(err.Error(), "[USER, ADMIN]") {
			t.Errorf("ParseRole(%q) error %q does not enumerate accepted values", invalid, err)
		}
	}
}

func TestParseSubscriptionTier(t *testing.T) {
	for _, valid := range []string{"FREE", "PREMIUM"} {
		tier, err := ParseSubscriptionTier(valid)
		if err != nil {
			t.Errorf("ParseSubscriptionTier(%q) error = %v", valid, err)
		}
		if string(tier) != valid {
			t.Errorf("ParseSubscriptionTier(%q) = %q", valid, tier)
		}
	}

	for _, invalid := range []string{"", "free", "GOLD"} {
		_, err := ParseSubscriptionTier(invalid)
		if err == nil {
			t.Errorf("ParseSubscriptionTier(%q) should fail", invalid)
			continue
		}
		if !strings.Contains(err.Error(), "[FREE, PREMIUM]") {
			t.Errorf("ParseSubscriptionTier(%q) error %q does not enumerate accepted values", invalid, err)
		}
	}
}

// The password hash must never leak through JSON, whatever struct ends up
// serialized.
func TestUserJSONNeverContainsPasswordHash(t *testing.T) {
	u := User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: "$2a$12$supersecret",
		Role:         RoleUser,
		Tier:         TierFree,
	}

	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(raw), "supersecret") {
		t.Fatalf("serialized User leaks the password hash: %s", raw)
	}

	raw, err = json.Marshal(u.View())
	if err != nil {
		t.Fatalf("Marshal view: %v", err)
	}
	if strings.Contains(string(raw), "supersecret") {
		t.Fatalf("serialized UserView leaks the password hash: %s", raw)
	}
}
