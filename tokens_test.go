package flatblog

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func setupTestTokens(t *testing.T) *TokenStore {
	t.Helper()
	return NewTokenStore(filepath.Join(t.TempDir(), "api-tokens.json"))
}

func TestTokenCreateAndAuthenticate(t *testing.T) {
	s := setupTestTokens(t)

	plaintext, info, err := s.Create("ci-agent")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.HasPrefix(plaintext, "opflow_") {
		t.Errorf("token %q missing prefix", plaintext)
	}
	if info.Prefix != plaintext[:18] {
		t.Errorf("Prefix = %q, want %q", info.Prefix, plaintext[:18])
	}
	if info.ID == "" || info.CreatedAt == "" {
		t.Errorf("incomplete token info: %+v", info)
	}

	got, ok, err := s.Authenticate(plaintext)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if !ok {
		t.Fatal("freshly created token should authenticate")
	}
	if got.ID != info.ID {
		t.Errorf("authenticated ID = %q, want %q", got.ID, info.ID)
	}
	if got.LastUsedAt == "" {
		t.Error("lastUsedAt not stamped on use")
	}
}

func TestTokenAuthenticateRejectsUnknown(t *testing.T) {
	s := setupTestTokens(t)
	if _, _, err := s.Create("one"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, ok, err := s.Authenticate("opflow_not-a-real-token")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if ok {
		t.Error("unknown token should not authenticate")
	}
}

func TestTokenRevoke(t *testing.T) {
	s := setupTestTokens(t)
	plaintext, info, err := s.Create("to-revoke")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	revoked, err := s.Revoke(info.ID)
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if revoked.RevokedAt == "" {
		t.Error("revokedAt not set")
	}

	// Idempotent on an already-revoked token.
	again, err := s.Revoke(info.ID)
	if err != nil {
		t.Fatalf("second Revoke failed: %v", err)
	}
	if again.RevokedAt != revoked.RevokedAt {
		t.Errorf("revokedAt changed on repeat revoke: %q vs %q", again.RevokedAt, revoked.RevokedAt)
	}

	if _, ok, _ := s.Authenticate(plaintext); ok {
		t.Error("revoked token still authenticates")
	}
}

func TestTokenRevokeUnknownID(t *testing.T) {
	s := setupTestTokens(t)
	if _, err := s.Revoke("no-such-id"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestTokenListNeverExposesHash(t *testing.T) {
	s := setupTestTokens(t)
	plaintext, _, err := s.Create("hidden")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	infos, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d tokens, want 1", len(infos))
	}
	if infos[0].Name != "hidden" {
		t.Errorf("Name = %q", infos[0].Name)
	}
	// The plaintext beyond the prefix must not be recoverable from List.
	if strings.Contains(plaintext, infos[0].Prefix) && infos[0].Prefix == plaintext {
		t.Error("full plaintext leaked through List")
	}
}

func TestTokenCreateValidation(t *testing.T) {
	s := setupTestTokens(t)
	if _, _, err := s.Create("   "); !IsValidation(err) {
		t.Errorf("empty name: err = %v, want validation error", err)
	}
	if _, _, err := s.Create(strings.Repeat("x", 81)); !IsValidation(err) {
		t.Errorf("long name: err = %v, want validation error", err)
	}
}

func TestHashTokenIsStable(t *testing.T) {
	a := HashToken("opflow_abc.def")
	b := HashToken("opflow_abc.def")
	if a != b {
		t.Error("hash not deterministic")
	}
	if a == HashToken("opflow_abc.deg") {
		t.Error("distinct tokens hashed equal")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
