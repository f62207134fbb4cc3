package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "s3cret" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatalf("valid password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("wrong password accepted")
	}
	if CheckPassword("", "s3cret") {
		t.Fatalf("empty hash accepted")
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Parallel()
	ident := types.Identity{
		ID:            "sale-1",
		FullName:      "Jane Doe",
		Avatar:        "https://example.test/a.png",
		Administrator: true,
	}
	token, err := GenerateSessionToken("secret", ident, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	parsed, err := ParseSessionToken("secret", token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if parsed != ident {
		t.Fatalf("identity changed in round trip: got=%#v want=%#v", parsed, ident)
	}
}

func TestParseSessionTokenRejectsBadInput(t *testing.T) {
	t.Parallel()
	ident := types.Identity{ID: "sale-1", FullName: "Jane Doe"}
	token, err := GenerateSessionToken("secret", ident, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ParseSessionToken("other-secret", token); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
	if _, err := ParseSessionToken("secret", ""); err == nil {
		t.Fatalf("empty token accepted")
	}
	if _, err := ParseSessionToken("secret", "not.a.token"); err == nil {
		t.Fatalf("malformed token accepted")
	}

	expired, err := GenerateSessionToken("secret", ident, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := ParseSessionToken("secret", expired); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	if got := GetEnv("PULSECRM_TEST_MISSING", "fallback", nil); got != "fallback" {
		t.Fatalf("missing var: got=%q want=%q", got, "fallback")
	}
	t.Setenv("PULSECRM_TEST_STR", "set")
	if got := GetEnv("PULSECRM_TEST_STR", "fallback", nil); got != "set" {
		t.Fatalf("set var: got=%q want=%q", got, "set")
	}

	t.Setenv("PULSECRM_TEST_INT", "42")
	if got := GetEnvAsInt("PULSECRM_TEST_INT", 7, nil); got != 42 {
		t.Fatalf("int var: got=%d want=42", got)
	}
	t.Setenv("PULSECRM_TEST_INT", "nope")
	if got := GetEnvAsInt("PULSECRM_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("unparsable int must fall back: got=%d want=7", got)
	}

	t.Setenv("PULSECRM_TEST_DUR", "90s")
	if got := GetEnvAsDuration("PULSECRM_TEST_DUR", time.Minute, nil); got != 90*time.Second {
		t.Fatalf("duration var: got=%v want=90s", got)
	}
	t.Setenv("PULSECRM_TEST_DUR", "soon")
	if got := GetEnvAsDuration("PULSECRM_TEST_DUR", time.Minute, nil); got != time.Minute {
		t.Fatalf("unparsable duration must fall back: got=%v want=1m", got)
	}
}
