package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nhle/notifyadmin/internal/credential"
	"github.com/nhle/notifyadmin/internal/mockapi"
	"github.com/nhle/notifyadmin/internal/model"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupMock(t *testing.T, token string) (*mockapi.Server, *Client) {
	t.Helper()
	mock := mockapi.New("secret")
	server := httptest.NewServer(mock.Handler())
	t.Cleanup(server.Close)
	return mock, NewClient(server.URL+"/api/", credential.StaticToken(token))
}

func TestClientRoundTrip(t *testing.T) {
	mock, c := setupMock(t, "secret")
	ctx := context.Background()

	d := model.NewDraft()
	d.Title = "Welcome to GrowFund"
	d.Message = "Thank you for joining..."
	d.Type = model.TypeSuccess

	sent, err := c.SendNotification(ctx, d.Request())
	if err != nil {
		t.Fatalf("SendNotification() error: %v", err)
	}
	if sent.ID == 0 || sent.SentCount != 156 || sent.Type != model.TypeSuccess {
		t.Fatalf("sent = %+v", sent)
	}
	if got := mock.LastAuthorization(); got != "Bearer secret" {
		t.Fatalf("Authorization = %q", got)
	}

	list, err := c.ListNotifications(ctx)
	if err != nil {
		t.Fatalf("ListNotifications() error: %v", err)
	}
	if len(list) != 1 || list[0].ID != sent.ID {
		t.Fatalf("list = %+v", list)
	}

	msg, err := c.DeleteNotification(ctx, sent.ID)
	if err != nil {
		t.Fatalf("DeleteNotification() error: %v", err)
	}
	if msg != "Notification deleted" {
		t.Fatalf("delete message = %q", msg)
	}
}

func TestClientEmptyListIsNotNil(t *testing.T) {
	_, c := setupMock(t, "secret")
	list, err := c.ListNotifications(context.Background())
	if err != nil {
		t.Fatalf("ListNotifications() error: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("list = %#v, want empty non-nil slice", list)
	}
}

// headerRecorder keeps the Authorization header as the client set it,
// before the server trims trailing whitespace.
type headerRecorder struct {
	next http.RoundTripper
	auth []string
}

func (h *headerRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	h.auth = append(h.auth, req.Header.Get("Authorization"))
	return h.next.RoundTrip(req)
}

func TestClientSendsEvenWithoutToken(t *testing.T) {
	mock := mockapi.New("secret")
	server := httptest.NewServer(mock.Handler())
	defer server.Close()

	rec := &headerRecorder{next: http.DefaultTransport}
	missing := credential.TokenFunc(func() (string, error) { return "", credential.ErrNotFound })
	c := NewClient(server.URL+"/api", missing, WithHTTPClient(&http.Client{Transport: rec}))

	_, err := c.ListNotifications(context.Background())
	if !IsAuthError(err) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if mock.Requests() != 1 {
		t.Fatalf("Requests() = %d, want 1", mock.Requests())
	}
	if len(rec.auth) != 1 || rec.auth[0] != "Bearer " {
		t.Fatalf("sent Authorization = %q, want bare Bearer", rec.auth)
	}
	if got := mock.LastAuthorization(); got != "Bearer" {
		t.Fatalf("received Authorization = %q, want Bearer", got)
	}
}

func TestClientNotFoundObjectError(t *testing.T) {
	_, c := setupMock(t, "secret")
	_, err := c.DeleteNotification(context.Background(), 999)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "Notification not found" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestClientSuccessFalseWithOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "error": "Only admins can send notifications"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, credential.StaticToken("x"))
	_, err := c.SendNotification(context.Background(), model.SendRequest{Title: "t", Message: "m"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Message != "Only admins can send notifications" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestClientSuccessFalseWithoutErrorUsesFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, credential.StaticToken("x"))
	_, err := c.ListNotifications(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Failed to fetch notifications" {
		t.Fatalf("err = %v, want fallback message", err)
	}
}

func TestClientNonJSONServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream down</html>"))
	}))
	defer server.Close()

	c := NewClient(server.URL, credential.StaticToken("x"))
	_, err := c.ListNotifications(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || !strings.Contains(apiErr.Message, "upstream down") {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestClientDetailAuthBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "You do not have permission to perform this action."}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, credential.StaticToken("x"))
	_, err := c.ListNotifications(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if authErr.StatusCode != http.StatusForbidden || !strings.Contains(authErr.Message, "permission") {
		t.Fatalf("authErr = %+v", authErr)
	}
}

func TestClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClient(url, credential.StaticToken("x"))
	_, err := c.ListNotifications(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if IsAPIError(err) || IsAuthError(err) {
		t.Fatalf("transport failure classified as %T", err)
	}
}

func TestClientDoesNotRetry(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success": false, "error": "slow down"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, credential.StaticToken("x"))
	if _, err := c.ListNotifications(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if hits != 1 {
		t.Fatalf("hits = %d, want exactly 1", hits)
	}
}
