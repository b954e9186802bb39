package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/notifyadmin/internal/credential"
	"github.com/nhle/notifyadmin/internal/mockapi"
	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/notifier"
	"github.com/nhle/notifyadmin/internal/testutil"
)

type harness struct {
	mock    *mockapi.Server
	baseURL string
	dir     string
	stdin   *strings.Reader
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	saved   map[string]string
	removed []string
}

func newHarness(t *testing.T, seed int) *harness {
	t.Helper()
	mock, baseURL := testutil.NewMockBackend(t, "secret")
	mock.Seed(testutil.Notifications(seed)...)
	return &harness{
		mock:    mock,
		baseURL: baseURL,
		dir:     t.TempDir(),
		stdin:   strings.NewReader(""),
		saved:   map[string]string{},
	}
}

func (h *harness) run(token string, args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()

	c := newCLI(h.stdin, &h.stdout, &h.stderr)
	c.tokens = credential.StaticToken(token)
	c.setToken = func(key, value string) error { h.saved[key] = value; return nil }
	c.deleteToken = func(key string) error { h.removed = append(h.removed, key); return nil }

	global := []string{
		"--config", filepath.Join(h.dir, "config.yaml"),
		"--db", filepath.Join(h.dir, "cache.db"),
		"--base-url", h.baseURL,
		"--format", "json",
	}
	return c.run(append(global, args...))
}

func decodeList(t *testing.T, b []byte) []model.Notification {
	t.Helper()
	var out []model.Notification
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decoding %q: %v", b, err)
	}
	return out
}

func TestListPrintsServerOrder(t *testing.T) {
	h := newHarness(t, 3)

	if err := h.run("secret", "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	items := decodeList(t, h.stdout.Bytes())
	if len(items) != 3 || items[0].ID != 3 || items[2].ID != 1 {
		t.Fatalf("items = %+v", items)
	}
}

func TestListFailureToastsAndKeepsCache(t *testing.T) {
	h := newHarness(t, 2)
	if err := h.run("secret", "list"); err != nil {
		t.Fatalf("list: %v", err)
	}

	err := h.run("wrong", "list")
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v, want errReported", err)
	}
	if !strings.Contains(h.stderr.String(), notifier.MsgLoadFailed) {
		t.Fatalf("stderr = %q", h.stderr.String())
	}

	if err := h.run("wrong", "list", "--cached"); err != nil {
		t.Fatalf("list --cached: %v", err)
	}
	if got := decodeList(t, h.stdout.Bytes()); len(got) != 2 {
		t.Fatalf("cached items = %d, want 2", len(got))
	}
}

func TestSendReportsRecipients(t *testing.T) {
	h := newHarness(t, 0)

	err := h.run("secret", "send", "--title", "Hi", "--message", "Welcome", "--target", "verified_users")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	items := decodeList(t, h.stdout.Bytes())
	if len(items) != 1 || items[0].SentCount != 120 {
		t.Fatalf("items = %+v", items)
	}
	if !strings.Contains(h.stderr.String(), notifier.SentMessage(120)) {
		t.Fatalf("stderr = %q", h.stderr.String())
	}

	if err := h.run("secret", "activity"); err != nil {
		t.Fatalf("activity: %v", err)
	}
	var entries []model.Activity
	if err := json.Unmarshal(h.stdout.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Action != model.ActionSent {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestSendBlankMakesNoRequest(t *testing.T) {
	h := newHarness(t, 0)

	err := h.run("secret", "send", "--title", "  ", "--message", "body")
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v", err)
	}
	if h.mock.Requests() != 0 {
		t.Fatalf("requests = %d, want 0", h.mock.Requests())
	}
	if !strings.Contains(h.stderr.String(), notifier.MsgRequired) {
		t.Fatalf("stderr = %q", h.stderr.String())
	}
}

func TestSendRejectsBadEnum(t *testing.T) {
	h := newHarness(t, 0)
	if err := h.run("secret", "send", "-t", "a", "-m", "b", "--type", "urgent"); err == nil {
		t.Fatal("expected error for bad --type")
	}
}

func TestDeleteDeclinedOnStdin(t *testing.T) {
	h := newHarness(t, 2)
	h.stdin = strings.NewReader("n\n")

	if err := h.run("secret", "delete", "2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if h.mock.Requests() != 0 {
		t.Fatalf("requests = %d, want 0", h.mock.Requests())
	}
	if !strings.Contains(h.stderr.String(), "Cancelled") {
		t.Fatalf("stderr = %q", h.stderr.String())
	}
}

func TestDeleteConfirmed(t *testing.T) {
	h := newHarness(t, 2)
	h.stdin = strings.NewReader("yes\n")

	if err := h.run("secret", "delete", "2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	left := h.mock.Notifications()
	if len(left) != 1 || left[0].ID != 1 {
		t.Fatalf("server items = %+v", left)
	}
	if !strings.Contains(h.stderr.String(), notifier.MsgDeleted) {
		t.Fatalf("stderr = %q", h.stderr.String())
	}

	err := h.run("secret", "delete", "--yes", "99")
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(h.stderr.String(), notifier.MsgDeleteFailed) {
		t.Fatalf("stderr = %q", h.stderr.String())
	}
}

func TestWhoAmIDecodesJWT(t *testing.T) {
	h := newHarness(t, 0)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}

	if err := h.run(tok, "whoami"); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(h.stdout.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["user"] != "7" || got["expired"] != "false" || got["api"] != h.baseURL {
		t.Fatalf("whoami = %v", got)
	}
}

func TestLoginVerifiesAndSaves(t *testing.T) {
	h := newHarness(t, 0)

	h.stdin = strings.NewReader("wrong\n")
	if err := h.run("", "login"); err == nil {
		t.Fatal("login accepted a token the API rejects")
	}
	if len(h.saved) != 0 {
		t.Fatalf("saved = %v", h.saved)
	}

	h.stdin = strings.NewReader("secret\n")
	if err := h.run("", "login"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if h.saved[credential.AdminTokenKey] != "secret" {
		t.Fatalf("saved = %v", h.saved)
	}

	if err := h.run("", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(h.removed) != 2 {
		t.Fatalf("removed = %v", h.removed)
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, 0)
	if err := h.run("secret", "frobnicate"); err == nil {
		t.Fatal("expected error")
	}
}
