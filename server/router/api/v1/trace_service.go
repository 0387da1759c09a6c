package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetTrace returns the phase timings of a recent query by its trace id.
// Traces expire; a miss is a 404 even for ids that once existed.
func (s *APIV1Service) GetTrace(c echo.Context) error {
	id := c.Param("id")
	summary, ok := s.Service.Traces.Get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "trace not found: "+id)
	}
	return c.JSON(http.StatusOK, summary)
}
