package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields the bearer token for the next request. It is consulted
// on every call so a token saved mid-session is picked up immediately.
type TokenSource interface {
	Token() (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() (string, error)

// Token calls f.
func (f TokenFunc) Token() (string, error) { return f() }

// StaticToken always returns the same token.
type StaticToken string

// Token returns the token.
func (s StaticToken) Token() (string, error) { return string(s), nil }

// Getter reads a credential by key; Get satisfies it.
type Getter func(key string) (string, error)

// StoredToken resolves the admin token from the environment, then the
// admin-token keyring entry, then the generic token entry.
type StoredToken struct {
	Get Getter
}

// NewStoredToken returns a StoredToken backed by the system keyring.
func NewStoredToken() StoredToken {
	return StoredToken{Get: Get}
}

// Token returns the first non-empty token found. A missing token yields
// ErrNotFound alongside an empty string; callers may still send the request.
func (s StoredToken) Token() (string, error) {
	if v := strings.TrimSpace(os.Getenv(TokenEnvVar)); v != "" {
		return v, nil
	}

	get := s.Get
	if get == nil {
		get = Get
	}

	var lastErr error
	for _, key := range []string{AdminTokenKey, TokenKey} {
		v, err := get(key)
		if err != nil {
			lastErr = err
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
	if lastErr != nil && !errors.Is(lastErr, ErrNotFound) {
		return "", lastErr
	}
	return "", ErrNotFound
}

// TokenInfo is what can be read from a token without verifying it.
type TokenInfo struct {
	// JWT is false for opaque tokens; the other fields are then empty.
	JWT       bool
	Subject   string
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry in the past.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// String renders a short description for headers and whoami output.
func (i TokenInfo) String() string {
	if !i.JWT {
		return "opaque token"
	}
	who := i.UserID
	if who == "" {
		who = i.Subject
	}
	if who == "" {
		who = "unknown user"
	}
	if i.ExpiresAt.IsZero() {
		return fmt.Sprintf("user %s", who)
	}
	return fmt.Sprintf("user %s, expires %s", who, i.ExpiresAt.Local().Format("2006-01-02 15:04"))
}

// Inspect decodes a JWT's claims without checking the signature. The
// server remains the only authority on whether the token is valid.
func Inspect(token string) TokenInfo {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return TokenInfo{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{JWT: true}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	switch uid := claims["user_id"].(type) {
	case string:
		info.UserID = uid
	case float64:
		info.UserID = fmt.Sprintf("%.0f", uid)
	}
	return info
}
