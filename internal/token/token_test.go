package token

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user@example.com",
		ExpiresAt: jwt.NewNumericDate(expiry),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestExpiry(t *testing.T) {
	want := time.Now().Add(time.Hour).Truncate(time.Second)

	got, err := Expiry(signedToken(t, want))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Errorf("Expiry() = %v, want %v", got, want)
	}
}

func TestExpiry_Malformed(t *testing.T) {
	if _, err := Expiry("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestExpiry_NoClaim(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Expiry(signed); err == nil {
		t.Error("expected error for token without exp claim")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.IsLoggedIn() {
		t.Fatal("fresh store must start logged out")
	}
	if _, err := s.Token(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}

	tok := signedToken(t, time.Now().Add(time.Hour))
	if err := s.Save(tok, "user@example.com", "User"); err != nil {
		t.Fatal(err)
	}

	// Reload from disk.
	reloaded, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reloaded.Token()
	if err != nil {
		t.Fatal(err)
	}
	if got != tok {
		t.Error("token not persisted")
	}
	if reloaded.Email() != "user@example.com" {
		t.Errorf("email = %q", reloaded.Email())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("credential file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestFileStore_IsExpiringSoon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}

	// Logged out: nothing to refresh.
	if s.IsExpiringSoon(5 * time.Minute) {
		t.Error("logged-out store reported expiring")
	}

	if err := s.Save(signedToken(t, time.Now().Add(time.Hour)), "", ""); err != nil {
		t.Fatal(err)
	}
	if s.IsExpiringSoon(5 * time.Minute) {
		t.Error("fresh token reported expiring")
	}
	if !s.IsExpiringSoon(2 * time.Hour) {
		t.Error("token inside the refresh window not reported")
	}

	// Opaque, non-JWT token: treat as expiring so it gets refreshed.
	if err := s.Save("opaque-token", "", ""); err != nil {
		t.Fatal(err)
	}
	if !s.IsExpiringSoon(5 * time.Minute) {
		t.Error("unparseable token must count as expiring")
	}
}

func TestFileStore_Invalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(signedToken(t, time.Now().Add(time.Hour)), "", ""); err != nil {
		t.Fatal(err)
	}

	s.Invalidate()

	if s.IsLoggedIn() {
		t.Error("store still logged in after invalidate")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("credential file not removed")
	}
}

func TestFileStore_SeesExternalLogin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")

	daemon, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if daemon.IsLoggedIn() {
		t.Fatal("expected fresh store to be logged out")
	}

	// A separate process stores a credential on the same path.
	cli, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cli.Save("cli-token", "user@example.com", ""); err != nil {
		t.Fatal(err)
	}

	got, err := daemon.Token()
	if err != nil {
		t.Fatalf("expected daemon to pick up external login: %v", err)
	}
	if got != "cli-token" {
		t.Errorf("Token() = %q, want cli-token", got)
	}
	if !daemon.IsLoggedIn() {
		t.Error("expected IsLoggedIn true after external login")
	}
	if daemon.Email() != "user@example.com" {
		t.Errorf("Email() = %q, want user@example.com", daemon.Email())
	}
}

func TestFileStore_SeesLoginAfterInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")

	daemon, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := daemon.Save("stale-token", "", ""); err != nil {
		t.Fatal(err)
	}

	// Server rejected the token; the daemon drops it.
	daemon.Invalidate()
	if daemon.IsLoggedIn() {
		t.Fatal("expected logged out after invalidate")
	}

	cli, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cli.Save("fresh-token", "", ""); err != nil {
		t.Fatal(err)
	}

	got, err := daemon.Token()
	if err != nil {
		t.Fatalf("expected daemon to recover after re-login: %v", err)
	}
	if got != "fresh-token" {
		t.Errorf("Token() = %q, want fresh-token", got)
	}
}
