package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/phmhse/csmstrack/internal/store"
)

type taskView struct {
	models.Task
	EffectiveStatus status.Status `json:"effective_status"`
	DateError       string        `json:"date_error,omitempty"`
}

func viewTask(d status.Deriver, t *models.Task) taskView {
	v := taskView{Task: *t}
	ann, err := d.Task(t)
	v.EffectiveStatus = ann.Effective
	if err != nil {
		v.EffectiveStatus = status.Normalize(status.KindTask, t.Status)
		v.DateError = err.Error()
	}
	return v
}

func viewTasks(d status.Deriver, tasks []models.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, viewTask(d, &tasks[i]))
	}
	return out
}

// handleTaskList lists tasks, optionally narrowed to one project and to one
// effective status.
func (s *server) handleTaskList(c *gin.Context) {
	f := store.Filter{Order: "project_id, code"}
	if pid := c.Query("project_id"); pid != "" {
		f.Where = map[string]any{"project_id": pid}
	}
	tasks, err := store.List[models.Task](c.Request.Context(), s.DB, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	store.SortByCode(tasks)

	want := status.Status(c.Query("status"))
	views := viewTasks(status.NewDeriver(s.Calendar, s.Now()), tasks)
	out := views[:0]
	for _, v := range views {
		if want == "" || v.EffectiveStatus == want {
			out = append(out, v)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) handleTaskGet(c *gin.Context) {
	t, err := store.Get[models.Task](c.Request.Context(), s.DB, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewTask(status.NewDeriver(s.Calendar, s.Now()), t))
}

type scoreRequest struct {
	Score *int `json:"score" binding:"required"`
}

func (s *server) handleTaskScore(c *gin.Context) {
	var req scoreRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	t, err := store.SetTaskScore(c.Request.Context(), s.DB, c.Param("id"), *req.Score)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewTask(status.NewDeriver(s.Calendar, s.Now()), t))
}
