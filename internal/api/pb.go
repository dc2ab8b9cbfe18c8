package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/score"
	"github.com/phmhse/csmstrack/internal/store"
)

func (s *server) handlePBList(c *gin.Context) {
	f := store.Filter{Order: "project_id, period"}
	if pid := c.Query("project_id"); pid != "" {
		f.Where = map[string]any{"project_id": pid}
	}
	list, err := store.List[models.CsmsPB](c.Request.Context(), s.DB, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// handlePBStatistics returns one series per project with its average,
// latest score and band.
func (s *server) handlePBStatistics(c *gin.Context) {
	f := store.Filter{}
	if pid := c.Query("project_id"); pid != "" {
		f.Where = map[string]any{"project_id": pid}
	}
	list, err := store.List[models.CsmsPB](c.Request.Context(), s.DB, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, score.PBSeries(list))
}

func (s *server) handlePBAttachment(c *gin.Context) {
	ctx := c.Request.Context()
	rec, err := store.Get[models.CsmsPB](ctx, s.DB, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	owner := rec.WellName
	if owner == "" {
		owner = rec.ProjectID
	}
	a, err := s.upload(c, []string{"CSMS PB", owner, rec.Period})
	if err != nil {
		s.respondError(c, err)
		return
	}
	out, err := store.AttachToPB(ctx, s.DB, rec.ID, a)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
