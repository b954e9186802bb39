// Package mockapi is an in-memory stand-in for the admin notification
// backend. It serves the same three endpoints with the same envelopes and
// is used by package tests and by `notifyadmin mock-server`.
package mockapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/notifyadmin/internal/model"
)

// sendBody is the bound request of POST /notifications/admin/send/.
type sendBody struct {
	Title       string `json:"title" binding:"required,max=200"`
	Message     string `json:"message" binding:"required"`
	Type        string `json:"type" binding:"omitempty,oneof=info success warning error"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low normal high"`
	Target      string `json:"target" binding:"omitempty,oneof=all verified_users specific_users"`
	TargetUsers string `json:"target_users"`
}

// failure is a one-shot injected error response.
type failure struct {
	status  int
	message string
}

// Server holds the fake backend state.
type Server struct {
	mu       sync.Mutex
	token    string
	allUsers int
	verified int
	nextID   int64
	items    []model.Notification
	requests int
	lastAuth string
	fail     *failure
	now      func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithRecipients sets how many users "all" and "verified_users" reach.
func WithRecipients(all, verified int) Option {
	return func(s *Server) {
		s.allUsers = all
		s.verified = verified
	}
}

// WithClock replaces time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a fake backend accepting the given bearer token. An empty
// token accepts any request.
func New(token string, opts ...Option) *Server {
	s := &Server{
		token:    token,
		allUsers: 156,
		verified: 120,
		nextID:   1,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns a gin engine serving the endpoints under /api.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.count)

	api := r.Group("/api/notifications/admin", s.auth, s.injectFailure)
	api.GET("/notifications/", s.list)
	api.POST("/send/", s.send)
	api.DELETE("/notifications/:id/", s.remove)

	return r
}

// Seed prepends records as if they had been sent earlier. Records with a
// zero ID get the next free one.
func (s *Server) Seed(items ...model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		n := items[i]
		if n.ID == 0 {
			n.ID = s.nextID
		}
		if n.ID >= s.nextID {
			s.nextID = n.ID + 1
		}
		s.items = append([]model.Notification{n}, s.items...)
	}
}

// Notifications returns a copy of the stored records, newest first.
func (s *Server) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Requests returns how many HTTP requests reached the server.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// LastAuthorization returns the Authorization header of the last request.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// FailNext makes the next authenticated request answer with status and
// {success:false, error:message}.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = &failure{status: status, message: message}
}

func (s *Server) count(c *gin.Context) {
	s.mu.Lock()
	s.requests++
	s.lastAuth = c.GetHeader("Authorization")
	s.mu.Unlock()
	c.Next()
}

func (s *Server) auth(c *gin.Context) {
	if s.token == "" {
		c.Next()
		return
	}
	header := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	if !strings.HasPrefix(header, "Bearer") || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Authentication credentials were not provided.",
		})
		return
	}
	if token != s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Given token not valid for any token type",
		})
		return
	}
	c.Next()
}

func (s *Server) injectFailure(c *gin.Context) {
	s.mu.Lock()
	f := s.fail
	s.fail = nil
	s.mu.Unlock()

	if f != nil {
		c.AbortWithStatusJSON(f.status, gin.H{"success": false, "error": f.message})
		return
	}
	c.Next()
}

func (s *Server) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    s.Notifications(),
	})
}

func (s *Server) send(c *gin.Context) {
	var body sendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	n := model.Notification{
		Title:    body.Title,
		Message:  body.Message,
		Type:     model.NotificationType(defaultString(body.Type, string(model.TypeInfo))),
		Priority: model.Priority(defaultString(body.Priority, string(model.PriorityNormal))),
		Target:   model.Target(defaultString(body.Target, string(model.TargetAll))),
		Status:   model.StatusSent,
	}
	if n.Target == model.TargetSpecificUsers {
		n.TargetUsers = body.TargetUsers
	}

	s.mu.Lock()
	n.ID = s.nextID
	s.nextID++
	n.CreatedAt = s.now().UTC().Truncate(time.Second)
	n.SentCount = s.recipientsFor(n)
	s.items = append([]model.Notification{n}, s.items...)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": n})
}

func (s *Server) remove(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid notification id"})
		return
	}

	s.mu.Lock()
	found := false
	kept := s.items[:0]
	for _, n := range s.items {
		if n.ID == id {
			found = true
			continue
		}
		kept = append(kept, n)
	}
	s.items = kept
	s.mu.Unlock()

	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   gin.H{"message": "Notification not found"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"message": "Notification deleted"},
	})
}

// recipientsFor must be called with s.mu held.
func (s *Server) recipientsFor(n model.Notification) int {
	switch n.Target {
	case model.TargetVerifiedUsers:
		return s.verified
	case model.TargetSpecificUsers:
		return len(n.TargetUserList())
	default:
		return s.allUsers
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
