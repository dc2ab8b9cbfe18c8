package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phmhse/csmstrack/internal/apperr"
)

var errNoDispatcher = apperr.Upstream("reminders", fmt.Errorf("reminder dispatch is not configured"))

// handleReminderPreview lists the reminders that are due now without
// claiming or sending anything.
func (s *server) handleReminderPreview(c *gin.Context) {
	if s.Dispatcher == nil {
		s.respondError(c, errNoDispatcher)
		return
	}
	res, err := s.Dispatcher.Preview(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleReminderRun triggers one dispatch pass. Send failures still return
// the full summary alongside the error.
func (s *server) handleReminderRun(c *gin.Context) {
	if s.Dispatcher == nil {
		s.respondError(c, errNoDispatcher)
		return
	}
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
	sum, err := s.Dispatcher.Run(c.Request.Context(), dryRun)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, apperr.ErrUpstreamUnavailable) {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"error": err.Error(), "summary": sum})
		return
	}
	c.JSON(http.StatusOK, sum)
}
