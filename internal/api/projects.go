package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/report"
	"github.com/phmhse/csmstrack/internal/score"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/phmhse/csmstrack/internal/store"
)

// projectView is a project with its derived status and scores.
type projectView struct {
	models.Project
	EffectiveStatus status.Status `json:"effective_status"`
	DateError       string        `json:"date_error,omitempty"`
	Summary         score.Summary `json:"summary"`
}

type projectDetail struct {
	projectView
	Rating    score.Rating        `json:"rating"`
	Tasks     []taskView          `json:"tasks"`
	Schedules []scheduleView      `json:"schedules"`
	Docs      []models.RelatedDoc `json:"docs"`
}

// viewProject derives p's status and summary. A malformed date is reported
// in the view rather than failing the request.
func viewProject(d status.Deriver, p *models.Project, scored []score.Scored, pb []models.CsmsPB) projectView {
	v := projectView{Project: *p, Summary: score.Summarize(p.ID, scored, pb)}
	ann, err := d.Project(p)
	v.EffectiveStatus = ann.Effective
	if err != nil {
		v.EffectiveStatus = status.Normalize(status.KindProject, p.Status)
		v.DateError = err.Error()
	}
	return v
}

func (s *server) handleProjectList(c *gin.Context) {
	snap, err := store.LoadSnapshot(c.Request.Context(), s.DB, store.Scope{})
	if err != nil {
		s.respondError(c, err)
		return
	}
	d := status.NewDeriver(s.Calendar, s.Now())
	scored, _ := score.Annotate(d, snap.Tasks)

	filter := c.Query("status")
	out := make([]projectView, 0, len(snap.Projects))
	for i := range snap.Projects {
		v := viewProject(d, &snap.Projects[i], scored, snap.PB)
		if filter != "" && string(v.EffectiveStatus) != filter {
			continue
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) handleProjectCreate(c *gin.Context) {
	var p models.Project
	if err := bind(c, &p); err != nil {
		s.respondError(c, err)
		return
	}
	out, err := store.CreateProject(c.Request.Context(), s.DB, &p)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Sugar().Infow("project created", "service", "projects", "project", out.ID, "name", out.Name)
	s.afterCreate(c, out)
	c.JSON(http.StatusCreated, out)
}

// afterCreate refreshes the full workbook in storage and sends whatever
// reminder is already due for the new project. Failures are logged only;
// the project stays created.
func (s *server) afterCreate(c *gin.Context, p *models.Project) {
	ctx, cancel := s.upstreamCtx(c)
	defer cancel()
	log := s.log.With(zap.String("service", "projects"), zap.String("project", p.ID))

	if s.Uploader != nil {
		if err := s.syncWorkbook(ctx); err != nil {
			log.Warn("workbook sync failed", zap.Error(err))
		}
	}
	if s.Dispatcher != nil {
		sum, err := s.Dispatcher.RunProject(ctx, p.ID)
		if err != nil {
			log.Warn("new project reminder check failed", zap.Error(err))
		} else if sum.Sent > 0 {
			log.Info("new project reminders sent", zap.Int("sent", sum.Sent))
		}
	}
}

func (s *server) syncWorkbook(ctx context.Context) error {
	doc, err := report.Build(ctx, s.DB, report.Selection{All: true}, s.Calendar, s.Now())
	if err != nil {
		return err
	}
	art, err := report.Encode(doc, report.FormatXLSX)
	if err != nil {
		return err
	}
	_, err = report.Deliver(ctx, art, s.Uploader)
	return err
}

func (s *server) handleProjectDetail(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	p, err := store.Get[models.Project](ctx, s.DB, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	snap, err := store.LoadSnapshot(ctx, s.DB, store.Scope{ProjectID: id})
	if err != nil {
		s.respondError(c, err)
		return
	}
	docs, err := store.List[models.RelatedDoc](ctx, s.DB, store.Filter{
		Where: map[string]any{"project_id": id},
		Order: "created_at desc",
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	d := status.NewDeriver(s.Calendar, s.Now())
	store.SortByCode(snap.Tasks)
	scored, _ := score.Annotate(d, snap.Tasks)

	out := projectDetail{
		projectView: viewProject(d, p, scored, snap.PB),
		Rating:      score.ElementRating(scored),
		Tasks:       viewTasks(d, snap.Tasks),
		Schedules:   viewSchedules(d, snap.Schedules),
		Docs:        docs,
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) handleProjectDelete(c *gin.Context) {
	id := c.Param("id")
	if err := store.DeleteProject(c.Request.Context(), s.DB, id); err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Sugar().Infow("project deleted", "service", "projects", "project", id)
	c.Status(http.StatusNoContent)
}

func (s *server) handleProjectTasks(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := store.Get[models.Project](ctx, s.DB, id); err != nil {
		s.respondError(c, err)
		return
	}
	tasks, err := store.ProjectTasks(ctx, s.DB, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewTasks(status.NewDeriver(s.Calendar, s.Now()), tasks))
}
