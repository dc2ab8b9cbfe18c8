package store

import (
	"strings"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/score"
	"github.com/phmhse/csmstrack/internal/status"
)

// dates only needs layouts here, not a reference zone.
var dates = status.NewCalendar(nil)

// Validate checks a record before it is written. Types without write rules
// pass unchanged.
func Validate(rec any) error {
	switch r := rec.(type) {
	case *models.Project:
		return validateProject(r)
	case *models.Task:
		return validateTask(r)
	case *models.Schedule:
		return validateSchedule(r)
	case *models.Comment:
		if strings.TrimSpace(r.Content) == "" {
			return apperr.Validation("content", "is required")
		}
	case *models.CsmsPB:
		if r.Period == "" {
			return apperr.Validation("period", "is required")
		}
	case *models.RelatedDoc:
		if r.ProjectID == "" {
			return apperr.Validation("project_id", "is required")
		}
		if r.DocName == "" {
			return apperr.Validation("doc_name", "is required")
		}
	case *models.AppLog:
		switch r.Level {
		case models.LogInfo, models.LogWarn, models.LogError:
		default:
			return apperr.Validation("level", "%q must be INFO, WARN or ERROR", r.Level)
		}
	}
	return nil
}

func validateProject(p *models.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("name", "is required")
	}
	if err := status.ValidateStored(status.KindProject, p.Status); err != nil {
		return err
	}
	if err := dates.ValidateRange(p.StartDate, p.EndDate); err != nil {
		return err
	}
	if _, err := dates.ParseDate(p.RigDownDate); err != nil {
		return apperr.Validation("rig_down_date", "cannot parse %q", p.RigDownDate)
	}
	return nil
}

func validateTask(t *models.Task) error {
	if t.ProjectID == "" {
		return apperr.Validation("project_id", "is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return apperr.Validation("title", "is required")
	}
	if err := score.ValidateTaskScore(t.Score); err != nil {
		return err
	}
	if err := status.ValidateStored(status.KindTask, t.Status); err != nil {
		return err
	}
	return dates.ValidateRange(t.StartDate, t.EndDate)
}

func validateSchedule(s *models.Schedule) error {
	if err := status.ValidateStored(status.KindSchedule, s.Status); err != nil {
		return err
	}
	set := 0
	for _, m := range s.Milestones() {
		if m.Date == "" {
			continue
		}
		if _, err := dates.ParseDate(m.Date); err != nil {
			return apperr.Validation(m.Column, "cannot parse %q", m.Date)
		}
		set++
	}
	if set == 0 {
		return apperr.Validation("schedule", "at least one milestone date is required")
	}
	if s.ScheduleType != "" && models.MilestoneLabel(s.ScheduleType) == "" {
		return apperr.Validation("schedule_type", "%q is not a known type", s.ScheduleType)
	}
	return nil
}
