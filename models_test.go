package identity

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"Jane@Example.COM":   "jane@example.com",
		"  a@x.com \n":       "a@x.com",
		"":                   "",
		"already@lower.case": "already@lower.case",
	}

	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayNameFallback(t *testing.T) {
	if got := displayNameFallback(" Jane ", "j@x.com"); got != "Jane" {
		t.Fatalf("expected trimmed name, got %q", got)
	}
	if got := displayNameFallback("", "octo@x.com"); got != "octo" {
		t.Fatalf("expected email local part, got %q", got)
	}
	if got := displayNameFallback("", "weird"); got != "weird" {
		t.Fatalf("expected raw email, got %q", got)
	}
}

func TestUserCredentialHelpers(t *testing.T) {
	var nilUser *User
	if nilUser.HasPassword() || nilUser.HasProviderIdentity() {
		t.Fatalf("nil user must not report credentials")
	}

	u := &User{PasswordHash: "hash"}
	if !u.HasPassword() {
		t.Fatalf("expected password credential")
	}
	if u.HasProviderIdentity() || u.LinkedTo("", "") {
		t.Fatalf("expected no provider identity")
	}

	u.AuthProvider = "google"
	u.ProviderID = "g1"
	if !u.LinkedTo("google", "g1") {
		t.Fatalf("expected link to google/g1")
	}
	if u.LinkedTo("google", "g2") || u.LinkedTo("github", "g1") {
		t.Fatalf("unexpected link match")
	}
}

func TestNewUser(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	u := NewUser(UserFields{Email: " A@X.com", DisplayName: "A"}, now)

	if u.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if u.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected generated id")
	}
	if !u.CreatedAt.Equal(now) || !u.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps to be %v", now)
	}

	other := NewUser(UserFields{Email: "a@x.com"}, now)
	if other.ID == u.ID {
		t.Fatalf("expected distinct ids")
	}
}

func TestUserJSONOmitsPasswordHash(t *testing.T) {
	u := NewUser(UserFields{Email: "a@x.com", DisplayName: "A", PasswordHash: "secret-hash"}, time.Now())

	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["password_hash"]; ok {
		t.Fatalf("password hash must not be serialized")
	}
	for _, key := range []string{"PasswordHash", "password"} {
		if _, ok := decoded[key]; ok {
			t.Fatalf("unexpected key %q", key)
		}
	}
	if decoded["email"] != "a@x.com" {
		t.Fatalf("expected email in payload, got %#v", decoded["email"])
	}
}
