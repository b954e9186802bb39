package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/nhle/notifyadmin/internal/admin"
)

type countingLister struct {
	mu    gosync.Mutex
	calls int
	err   error
}

func (c *countingLister) List(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func (c *countingLister) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func nextResult(t *testing.T, r *Refresher) RefreshedMsg {
	t.Helper()
	done := make(chan RefreshedMsg, 1)
	go func() {
		msg, _ := r.WaitForNextResult()().(RefreshedMsg)
		done <- msg
	}()
	select {
	case msg := <-done:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh result")
		return RefreshedMsg{}
	}
}

func TestStartRunsOnceAndManualRefresh(t *testing.T) {
	l := &countingLister{}
	r := New(l, 0)
	defer r.Stop()

	cmd := r.Start()
	if cmd == nil {
		t.Fatal("Start() returned nil command")
	}
	if msg, ok := cmd().(RefreshedMsg); !ok || msg.Error != nil {
		t.Fatalf("first result = %#v", msg)
	}
	if r.Start() != nil {
		t.Error("second Start() should return nil")
	}

	r.Refresh()
	nextResult(t, r)

	if got := l.count(); got != 2 {
		t.Fatalf("List calls = %d, want 2", got)
	}
	if st := r.Status(); st.State != RefreshIdle || st.LastOK.IsZero() {
		t.Fatalf("status = %+v", st)
	}
}

func TestPeriodicRefresh(t *testing.T) {
	l := &countingLister{}
	r := New(l, 10*time.Millisecond)
	defer r.Stop()

	r.Start()()
	nextResult(t, r)
	nextResult(t, r)

	if got := l.count(); got < 3 {
		t.Fatalf("List calls = %d, want at least 3", got)
	}
}

func TestRefreshReportsAuthError(t *testing.T) {
	l := &countingLister{err: &admin.AuthError{StatusCode: 401, Message: "bad token"}}
	r := New(l, 0)
	defer r.Stop()

	msg, _ := r.Start()().(RefreshedMsg)
	if msg.Error == nil || !msg.AuthError {
		t.Fatalf("msg = %#v, want auth error", msg)
	}
	if st := r.Status(); st.State != RefreshError {
		t.Fatalf("state = %v, want RefreshError", st.State)
	}

	l.mu.Lock()
	l.err = errors.New("boom")
	l.mu.Unlock()
	r.Refresh()
	if msg := nextResult(t, r); msg.AuthError || msg.Error == nil {
		t.Fatalf("msg = %#v, want plain error", msg)
	}
}

func TestStopReleasesWaiters(t *testing.T) {
	r := New(&countingLister{}, 0)
	if _, ok := r.Start()().(RefreshedMsg); !ok {
		t.Fatal("first result missing")
	}

	done := make(chan any, 1)
	go func() { done <- r.WaitForNextResult()() }()
	r.Stop()

	select {
	case msg := <-done:
		if msg != nil {
			t.Fatalf("msg = %#v, want nil after Stop", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter still blocked after Stop")
	}
	if r.Start() != nil {
		t.Fatal("Start() after Stop should return nil")
	}
}
