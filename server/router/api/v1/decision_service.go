package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/czapol/multi-agent-playground/ai/routing"
)

// ListDecisions returns the decision log, or only entries after ?since=<seq>.
func (s *APIV1Service) ListDecisions(c echo.Context) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return err
	}

	since := 0
	if raw := c.QueryParam("since"); raw != "" {
		since, err = strconv.Atoi(raw)
		if err != nil || since < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "since must be a non-negative sequence number")
		}
	}

	decisions := sess.Log().Since(since)
	if decisions == nil {
		decisions = []routing.Decision{}
	}
	return c.JSON(http.StatusOK, decisions)
}

// DecisionFeed serves the decision log as an Atom feed, newest first.
func (s *APIV1Service) DecisionFeed(c echo.Context) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return err
	}

	base := fmt.Sprintf("%s://%s/api/v1/sessions/%s", c.Scheme(), c.Request().Host, sess.ID)
	entries := sess.Log().Entries()

	feed := &feeds.Feed{
		Title:       "Routing decisions for session " + sess.ID,
		Link:        &feeds.Link{Href: base + "/decisions"},
		Description: "Every Switch Agent and Sub-Router decision in this session.",
		Id:          base + "/decisions.atom",
		Created:     sess.CreatedAt,
		Updated:     sess.CreatedAt,
	}
	for i := len(entries) - 1; i >= 0; i-- {
		d := entries[i]
		if d.Timestamp.After(feed.Updated) {
			feed.Updated = d.Timestamp
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          "urn:uuid:" + d.ID,
			Title:       fmt.Sprintf("#%d %s -> %s", d.Seq, d.DecidedBy, d.Target),
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/decisions?since=%d", base, d.Seq-1)},
			Description: decisionSummary(d),
			Created:     d.Timestamp,
		})
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build feed").SetInternal(err)
	}
	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(atom))
}

func decisionSummary(d routing.Decision) string {
	s := fmt.Sprintf("method=%s confidence=%.2f fallback=%t query=%q", d.Method, d.Confidence, d.Fallback, d.Query)
	if d.Rationale != "" {
		s += " rationale=" + d.Rationale
	}
	return s
}
