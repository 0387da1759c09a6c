package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/semaphore"

	"github.com/czapol/multi-agent-playground/ai"
	agent "github.com/czapol/multi-agent-playground/ai/agents"
	"github.com/czapol/multi-agent-playground/internal/profile"
)

// APIV1Service serves the JSON API under /api/v1.
type APIV1Service struct {
	Profile *profile.Profile
	Service *ai.Service

	markdown       goldmark.Markdown
	querySemaphore *semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, svc *ai.Service) *APIV1Service {
	limit := int64(profile.MaxConcurrentQueries)
	if limit <= 0 {
		limit = 8
	}
	return &APIV1Service{
		Profile:        profile,
		Service:        svc,
		markdown:       goldmark.New(),
		querySemaphore: semaphore.NewWeighted(limit), // Bounds in-flight backend calls across sessions
	}
}

// RegisterRoutes registers the v1 handlers with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	g := echoServer.Group("/api/v1", middleware.CORS())

	g.POST("/sessions", s.CreateSession)
	g.GET("/sessions", s.ListSessions)
	g.GET("/sessions/:id", s.GetSession)
	g.DELETE("/sessions/:id", s.ResetSession)

	g.POST("/sessions/:id/queries", s.CreateQuery)
	g.POST("/sessions/:id/preview", s.PreviewQuery)
	g.GET("/sessions/:id/turns", s.ListTurns)
	g.GET("/sessions/:id/decisions", s.ListDecisions)
	g.GET("/sessions/:id/decisions.atom", s.DecisionFeed)

	g.GET("/traces/:id", s.GetTrace)
}

func (s *APIV1Service) lookupSession(c echo.Context) (*agent.Session, error) {
	id := c.Param("id")
	sess, ok := s.Service.Sessions.Get(id)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found: "+id).SetInternal(agent.ErrSessionNotFound)
	}
	return sess, nil
}

// toHTTPError maps domain errors to status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, agent.ErrSessionBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error()).SetInternal(err)
	case errors.Is(err, agent.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}
