package credential

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func fakeGetter(values map[string]string) Getter {
	return func(key string) (string, error) {
		v, ok := values[key]
		if !ok {
			return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
		}
		return v, nil
	}
}

func TestStoredTokenPrecedence(t *testing.T) {
	t.Setenv(TokenEnvVar, "")

	src := StoredToken{Get: fakeGetter(map[string]string{
		AdminTokenKey: "admin-abc",
		TokenKey:      "generic-xyz",
	})}
	got, err := src.Token()
	if err != nil || got != "admin-abc" {
		t.Fatalf("Token() = %q, %v; want admin-abc", got, err)
	}

	src = StoredToken{Get: fakeGetter(map[string]string{TokenKey: "generic-xyz"})}
	got, err = src.Token()
	if err != nil || got != "generic-xyz" {
		t.Fatalf("Token() fallback = %q, %v; want generic-xyz", got, err)
	}

	t.Setenv(TokenEnvVar, "from-env")
	got, err = src.Token()
	if err != nil || got != "from-env" {
		t.Fatalf("Token() env = %q, %v; want from-env", got, err)
	}
}

func TestStoredTokenMissingReturnsErrNotFound(t *testing.T) {
	t.Setenv(TokenEnvVar, "")

	src := StoredToken{Get: fakeGetter(map[string]string{})}
	got, err := src.Token()
	if got != "" {
		t.Fatalf("Token() = %q, want empty", got)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Token() err = %v, want ErrNotFound", err)
	}
}

func TestStoredTokenSurfacesBackendErrors(t *testing.T) {
	t.Setenv(TokenEnvVar, "")

	boom := errors.New("keyring locked")
	src := StoredToken{Get: func(string) (string, error) { return "", boom }}
	if _, err := src.Token(); !errors.Is(err, boom) {
		t.Fatalf("Token() err = %v, want keyring error", err)
	}
}

func TestInspectJWT(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("not-the-server-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	info := Inspect(signed)
	if !info.JWT {
		t.Fatal("Inspect() JWT = false for a JWT")
	}
	if info.UserID != "42" {
		t.Fatalf("UserID = %q, want 42", info.UserID)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Fatalf("ExpiresAt = %v, want %v", info.ExpiresAt, exp)
	}
	if info.Expired(time.Now()) {
		t.Fatal("token should not be expired yet")
	}
	if !info.Expired(exp.Add(time.Minute)) {
		t.Fatal("token should be expired after exp")
	}
}

func TestInspectOpaqueToken(t *testing.T) {
	for _, tok := range []string{"", "abc123", "a.b.c"} {
		info := Inspect(tok)
		if info.JWT {
			t.Fatalf("Inspect(%q) JWT = true", tok)
		}
		if info.String() != "opaque token" {
			t.Fatalf("String() = %q", info.String())
		}
	}
}
