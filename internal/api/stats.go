package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phmhse/csmstrack/internal/applog"
	"github.com/phmhse/csmstrack/internal/score"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/phmhse/csmstrack/internal/store"
)

type statistics struct {
	Projects  map[status.Status]int `json:"projects"`
	Tasks     map[status.Status]int `json:"tasks"`
	Schedules map[status.Status]int `json:"schedules"`
	Invalid   int                   `json:"invalid_records"`
	Completed int                   `json:"tasks_completed"`
	TaskTotal int                   `json:"tasks_total"`
	Percent   float64               `json:"completion_percent"`
	PB        []score.PBStat        `json:"csms_pb"`
}

// handleStatistics counts records by effective status across the store.
func (s *server) handleStatistics(c *gin.Context) {
	snap, err := store.LoadSnapshot(c.Request.Context(), s.DB, store.Scope{})
	if err != nil {
		s.respondError(c, err)
		return
	}
	d := status.NewDeriver(s.Calendar, s.Now())
	out := statistics{
		Projects:  map[status.Status]int{},
		Tasks:     map[status.Status]int{},
		Schedules: map[status.Status]int{},
		PB:        score.PBSeries(snap.PB),
	}
	for i := range snap.Projects {
		v := viewProject(d, &snap.Projects[i], nil, nil)
		if v.DateError != "" {
			out.Invalid++
		}
		out.Projects[v.EffectiveStatus]++
	}
	for i := range snap.Schedules {
		v := viewSchedule(d, &snap.Schedules[i])
		if v.DateError != "" {
			out.Invalid++
		}
		out.Schedules[v.EffectiveStatus]++
	}
	scored, errs := score.Annotate(d, snap.Tasks)
	out.Invalid += len(errs)
	for _, t := range scored {
		out.Tasks[t.Status]++
	}
	comp := score.CompletionOf(scored)
	out.Completed, out.TaskTotal, out.Percent = comp.Completed, comp.Total, comp.Percent
	c.JSON(http.StatusOK, out)
}

// handleLogs returns recent persisted application log entries.
func (s *server) handleLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := applog.Recent(s.DB, c.Query("level"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
