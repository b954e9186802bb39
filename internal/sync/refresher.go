// Package sync re-fetches the notification list in the background and
// reports each result to the Bubble Tea runtime.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notifyadmin/internal/admin"
)

// RefreshState represents the current state of the refresher.
type RefreshState int

const (
	RefreshIdle RefreshState = iota
	RefreshRunning
	RefreshError
)

// Status holds the refresher state for display.
type Status struct {
	State    RefreshState
	LastRun  time.Time
	LastOK   time.Time
	Error    error
	Interval time.Duration
}

// RefreshedMsg is a tea.Msg sent when a list run completes.
type RefreshedMsg struct {
	Error     error
	AuthError bool
	At        time.Time
}

// Lister re-fetches the collection. *notifier.Manager satisfies it.
type Lister interface {
	List(ctx context.Context) error
}

// DefaultTimeout is the maximum time allowed for a single list run.
const DefaultTimeout = 30 * time.Second

// Refresher runs Lister.List on start, on every tick of interval (when
// interval > 0) and whenever Refresh is called.
type Refresher struct {
	lister   Lister
	interval time.Duration
	timeout  time.Duration

	resultCh  chan RefreshedMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	running bool
	stopped bool
	status  Status
}

// New creates a Refresher. An interval of zero disables periodic runs.
func New(l Lister, interval time.Duration) *Refresher {
	return &Refresher{
		lister:    l,
		interval:  interval,
		timeout:   DefaultTimeout,
		resultCh:  make(chan RefreshedMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		status:    Status{Interval: interval},
	}
}

// SetTimeout overrides the per-run timeout. Must be called before Start.
func (r *Refresher) SetTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// Start launches the refresh loop and returns a command that waits for
// the first result. It returns nil when already running or stopped.
func (r *Refresher) Start() tea.Cmd {
	r.mu.Lock()
	if r.running || r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.mu.Unlock()

	go r.loop()

	return r.waitForResult()
}

// Stop halts the refresh loop. Pending waiters receive nil once the loop
// exits. A stopped Refresher cannot be started again.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	close(r.stopCh)
	r.running = false
	r.stopped = true
}

// Refresh asks for an immediate run. Requests made while one is already
// queued are coalesced.
func (r *Refresher) Refresh() {
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns a copy of the current refresher status.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// WaitForNextResult returns a tea.Cmd that waits for the next result.
// Call it after handling a RefreshedMsg to keep listening.
func (r *Refresher) WaitForNextResult() tea.Cmd {
	return r.waitForResult()
}

func (r *Refresher) loop() {
	defer close(r.resultCh)

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	r.runOnce()

	for {
		select {
		case <-r.stopCh:
			return
		case <-tick:
			r.runOnce()
		case <-r.triggerCh:
			r.runOnce()
		}
	}
}

func (r *Refresher) runOnce() {
	r.setStatus(RefreshRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := r.lister.List(ctx)
	now := time.Now()

	if err != nil {
		r.setStatus(RefreshError, err)
	} else {
		r.setStatus(RefreshIdle, nil)
	}

	r.sendResult(RefreshedMsg{
		Error:     err,
		AuthError: admin.IsAuthError(err),
		At:        now,
	})
}

func (r *Refresher) setStatus(state RefreshState, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.status.State = state
	r.status.Error = err
	if state != RefreshRunning {
		r.status.LastRun = now
	}
	if state == RefreshIdle && err == nil {
		r.status.LastOK = now
	}
}

// sendResult never blocks the loop; results are dropped when nobody reads.
func (r *Refresher) sendResult(msg RefreshedMsg) {
	select {
	case r.resultCh <- msg:
	default:
	}
}

func (r *Refresher) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-r.resultCh
		if !ok {
			return nil
		}
		return result
	}
}
