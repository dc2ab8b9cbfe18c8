package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/phmhse/csmstrack/internal/store"
)

type scheduleView struct {
	models.Schedule
	EffectiveStatus status.Status      `json:"effective_status"`
	Milestones      []models.Milestone `json:"milestones"`
	DateError       string             `json:"date_error,omitempty"`
}

func viewSchedule(d status.Deriver, sc *models.Schedule) scheduleView {
	v := scheduleView{Schedule: *sc, Milestones: sc.Milestones()}
	ann, err := d.Schedule(sc)
	v.EffectiveStatus = ann.Effective
	if err != nil {
		v.EffectiveStatus = status.Normalize(status.KindSchedule, sc.Status)
		v.DateError = err.Error()
	}
	return v
}

func viewSchedules(d status.Deriver, list []models.Schedule) []scheduleView {
	out := make([]scheduleView, 0, len(list))
	for i := range list {
		out = append(out, viewSchedule(d, &list[i]))
	}
	return out
}

func (s *server) handleScheduleList(c *gin.Context) {
	where := map[string]any{}
	if pid := c.Query("project_id"); pid != "" {
		where["project_id"] = pid
	}
	if typ := c.Query("type"); typ != "" {
		where["schedule_type"] = typ
	}
	list, err := store.List[models.Schedule](c.Request.Context(), s.DB, store.Filter{Where: where})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewSchedules(status.NewDeriver(s.Calendar, s.Now()), list))
}

func (s *server) handleScheduleGet(c *gin.Context) {
	sc, err := store.Get[models.Schedule](c.Request.Context(), s.DB, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewSchedule(status.NewDeriver(s.Calendar, s.Now()), sc))
}

// handleScheduleDone marks a schedule Done, which silences its reminders.
func (s *server) handleScheduleDone(c *gin.Context) {
	sc, err := store.MarkScheduleDone(c.Request.Context(), s.DB, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewSchedule(status.NewDeriver(s.Calendar, s.Now()), sc))
}
