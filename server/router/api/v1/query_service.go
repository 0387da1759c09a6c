package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	agent "github.com/czapol/multi-agent-playground/ai/agents"
	"github.com/czapol/multi-agent-playground/ai/capability"
	"github.com/czapol/multi-agent-playground/ai/routing"
)

// QueryRequest is the body of POST /sessions/:id/queries and /preview.
type QueryRequest struct {
	Text string `json:"text"`
}

// QueryResponse adds the failure kind, which Result keeps out of JSON.
type QueryResponse struct {
	*agent.Result
	FailureKind capability.Kind `json:"failure_kind,omitempty"`
}

// PreviewResponse lists the decisions a query would produce.
type PreviewResponse struct {
	Decisions []routing.Decision `json:"decisions"`
}

// CreateQuery runs one query through the orchestrator. Backend failures are
// a 200 with state FAILED; only a busy session or an exhausted server is an
// HTTP error.
func (s *APIV1Service) CreateQuery(c echo.Context) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return err
	}
	req := &QueryRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query body").SetInternal(err)
	}

	ctx := c.Request().Context()
	if err := s.querySemaphore.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request canceled while waiting for a query slot").SetInternal(err)
	}
	defer s.querySemaphore.Release(1)

	res, err := s.Service.Orchestrator.Handle(ctx, sess, req.Text)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, QueryResponse{Result: res, FailureKind: res.FailureKind()})
}

// PreviewQuery routes a query without recording decisions or calling a backend.
func (s *APIV1Service) PreviewQuery(c echo.Context) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return err
	}
	req := &QueryRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query body").SetInternal(err)
	}
	return c.JSON(http.StatusOK, PreviewResponse{Decisions: s.Service.Orchestrator.Preview(sess, req.Text)})
}
