package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nhle/notifyadmin/internal/model"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func doReq(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSendListDelete(t *testing.T) {
	srv := New("secret", WithRecipients(10, 4))
	h := srv.Handler()

	rec := doReq(t, h, http.MethodPost, "/api/notifications/admin/send/", "secret", map[string]string{
		"title": "Hi", "message": "there", "type": "success", "priority": "high", "target": "verified_users",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send status = %d body=%s", rec.Code, rec.Body.String())
	}
	var sent struct {
		Success bool               `json:"success"`
		Data    model.Notification `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode send: %v", err)
	}
	if !sent.Success || sent.Data.SentCount != 4 || sent.Data.Status != model.StatusSent {
		t.Fatalf("send payload = %+v", sent)
	}

	rec = doReq(t, h, http.MethodGet, "/api/notifications/admin/notifications/", "secret", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	path := "/api/notifications/admin/notifications/1/"
	rec = doReq(t, h, http.MethodDelete, path, "secret", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d body=%s", rec.Code, rec.Body.String())
	}
	if len(srv.Notifications()) != 0 {
		t.Fatalf("notifications after delete = %d", len(srv.Notifications()))
	}

	rec = doReq(t, h, http.MethodDelete, path, "secret", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
	if srv.Requests() != 4 {
		t.Fatalf("Requests() = %d, want 4", srv.Requests())
	}
}

func TestRejectsBadTokenAndBadBody(t *testing.T) {
	srv := New("secret")
	h := srv.Handler()

	rec := doReq(t, h, http.MethodGet, "/api/notifications/admin/notifications/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", rec.Code)
	}
	rec = doReq(t, h, http.MethodGet, "/api/notifications/admin/notifications/", "wrong", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", rec.Code)
	}

	rec = doReq(t, h, http.MethodPost, "/api/notifications/admin/send/", "secret", map[string]string{
		"title": "x", "message": "y", "type": "urgent",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type status = %d", rec.Code)
	}
}

func TestSpecificUsersCountAndSeedOrder(t *testing.T) {
	srv := New("")
	srv.Seed(model.Notification{Title: "newer"}, model.Notification{Title: "older"})
	got := srv.Notifications()
	if len(got) != 2 || got[0].Title != "newer" {
		t.Fatalf("seed order = %+v", got)
	}

	rec := doReq(t, srv.Handler(), http.MethodPost, "/api/notifications/admin/send/", "", map[string]string{
		"title": "x", "message": "y", "target": "specific_users", "target_users": "a@x.io, b@x.io",
	})
	var sent struct {
		Data model.Notification `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sent.Data.SentCount != 2 {
		t.Fatalf("sent_count = %d, want 2", sent.Data.SentCount)
	}
	if sent.Data.ID <= got[0].ID && sent.Data.ID <= got[1].ID {
		t.Fatalf("new id %d should exceed seeded ids", sent.Data.ID)
	}
}
