package v1

import (
	"bytes"
	"fmt"
	"html"
	"net/http"

	"github.com/labstack/echo/v4"

	agent "github.com/czapol/multi-agent-playground/ai/agents"
)

// ListTurns returns the conversation. With ?format=html every turn is
// rendered from markdown into a standalone page.
func (s *APIV1Service) ListTurns(c echo.Context) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return err
	}
	turns := sess.Context().Turns()

	switch c.QueryParam("format") {
	case "", "json":
		return c.JSON(http.StatusOK, turns)
	case "html":
		page, err := s.renderTurns(sess.ID, turns)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to render turns").SetInternal(err)
		}
		return c.HTMLBlob(http.StatusOK, page)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "format must be json or html")
	}
}

func (s *APIV1Service) renderTurns(sessionID string, turns []agent.Turn) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!doctype html>\n<html>\n<head><meta charset=\"utf-8\"><title>Session %s</title></head>\n<body>\n", html.EscapeString(sessionID))
	for _, t := range turns {
		class := string(t.Role)
		if t.Failed() {
			class += " failed"
		}
		fmt.Fprintf(&buf, "<section class=\"turn %s\" id=\"turn-%d\">\n<h3>%s</h3>\n", class, t.Seq, html.EscapeString(turnLabel(t)))
		if err := s.markdown.Convert([]byte(t.Text), &buf); err != nil {
			return nil, fmt.Errorf("turn %d: %w", t.Seq, err)
		}
		buf.WriteString("</section>\n")
	}
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

func turnLabel(t agent.Turn) string {
	switch t.Role {
	case agent.RoleUser:
		return "User"
	case agent.RoleAssistant:
		if t.Capability != "" {
			return fmt.Sprintf("Assistant (%s)", t.Capability.ID())
		}
		return "Assistant"
	}
	return "System"
}
