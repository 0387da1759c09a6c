package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	agent "github.com/czapol/multi-agent-playground/ai/agents"
)

// SessionSummary is the API view of a session.
type SessionSummary struct {
	ID         string      `json:"id"`
	State      agent.State `json:"state"`
	Turns      int         `json:"turns"`
	Decisions  int         `json:"decisions"`
	CreatedAt  time.Time   `json:"created_at"`
	LastActive time.Time   `json:"last_active"`
}

func summarize(sess *agent.Session) SessionSummary {
	return SessionSummary{
		ID:         sess.ID,
		State:      sess.State(),
		Turns:      sess.Context().Len(),
		Decisions:  sess.Log().Len(),
		CreatedAt:  sess.CreatedAt,
		LastActive: sess.LastActive(),
	}
}

func (s *APIV1Service) CreateSession(c echo.Context) error {
	sess := s.Service.Sessions.Create()
	s.Service.Metrics.SetActiveSessions(s.Service.Sessions.Len())
	return c.JSON(http.StatusCreated, summarize(sess))
}

func (s *APIV1Service) ListSessions(c echo.Context) error {
	sessions := s.Service.Sessions.List()
	out := make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, summarize(sess))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *APIV1Service) GetSession(c echo.Context) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summarize(sess))
}

// ResetSession starts a new conversation on the same id: context and
// decision log are replaced, not truncated.
func (s *APIV1Service) ResetSession(c echo.Context) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return err
	}
	if err := sess.Reset(); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
