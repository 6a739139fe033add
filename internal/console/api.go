package console

import (
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/desk/internal/models"
	"github.com/inkpress/desk/internal/session"
)

// SessionResponse is the view of the session exposed to scripts. The
// credential itself never leaves the process.
type SessionResponse struct {
	Initialized   bool         `json:"initialized"`
	Authenticated bool         `json:"authenticated"`
	Busy          bool         `json:"busy"`
	Error         string       `json:"error,omitempty"`
	User          *models.User `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
}

func newSessionResponse(state session.State) SessionResponse {
	response := SessionResponse{
		Initialized:   state.Initialized,
		Authenticated: state.Authenticated(),
		Busy:          state.Busy,
		Error:         state.LastError,
		User:          state.Identity,
	}

	if expiry, ok := session.CredentialExpiry(state.Credential); ok {
		response.ExpiresAt = &expiry
	}

	return response
}

type HealthResponse struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	StartTime     time.Time `json:"startTime"`
	TotalRequests int64     `json:"totalRequests"`
	API           string    `json:"api"`
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       s.GetVersion(),
		StartTime:     s.StartTime,
		TotalRequests: atomic.LoadInt64(&s.TotalRequests),
		API:           s.App.Client.BaseURL(),
	})
}

func (s *Server) getSession(c *gin.Context) {
	s.App.Initialize(c.Request.Context())
	c.JSON(http.StatusOK, newSessionResponse(s.App.Session.State()))
}

func (s *Server) postSessionRefresh(c *gin.Context) {
	s.App.Session.RefreshProfile(c.Request.Context())
	c.JSON(http.StatusOK, newSessionResponse(s.App.Session.State()))
}

// getSessionEvents streams the session as server-sent events: the current
// snapshot first, then one event per change. Only the latest pending change is
// kept for slow readers.
func (s *Server) getSessionEvents(c *gin.Context) {
	updates := make(chan session.State, 1)

	cancel := s.App.Session.Subscribe(func(state session.State) {
		select {
		case updates <- state:
			return
		default:
		}
		// Replace the unread snapshot with the newer one
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- state:
		default:
		}
	})
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("session", newSessionResponse(s.App.Session.State()))
	c.Writer.Flush()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case state := <-updates:
			c.SSEvent("session", newSessionResponse(state))
			return true
		}
	})
}

func (s *Server) getLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		limit = 100
	}

	logs := s.App.Config.RecentLogs(limit)
	if logs == nil {
		logs = []*models.LogEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"logs": logs,
	})
}
