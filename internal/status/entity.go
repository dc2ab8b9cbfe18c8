package status

import (
	"time"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
)

// Annotated keeps the stored and the derived value side by side.
type Annotated struct {
	Stored    string `json:"stored_status"`
	Effective Status `json:"effective_status"`
}

// Deriver binds a Calendar to one evaluation instant.
type Deriver struct {
	Cal   Calendar
	Today time.Time
}

// NewDeriver returns a Deriver for now in cal's reference zone.
func NewDeriver(cal Calendar, now time.Time) Deriver {
	return Deriver{Cal: cal, Today: cal.Today(now)}
}

// Project derives a project's status from start_date and end_date.
func (d Deriver) Project(p *models.Project) (Annotated, error) {
	start, end, err := d.window(p.StartDate, p.EndDate)
	if err != nil {
		return Annotated{Stored: p.Status}, err
	}
	return Annotated{Stored: p.Status, Effective: Derive(KindProject, p.Status, start, end, d.Today)}, nil
}

// Task derives a task's status from start_date and end_date.
func (d Deriver) Task(t *models.Task) (Annotated, error) {
	start, end, err := d.window(t.StartDate, t.EndDate)
	if err != nil {
		return Annotated{Stored: t.Status}, err
	}
	return Annotated{Stored: t.Status, Effective: Derive(KindTask, t.Status, start, end, d.Today)}, nil
}

// Schedule derives a schedule's status from its primary milestone.
func (d Deriver) Schedule(s *models.Schedule) (Annotated, error) {
	m, err := PrimaryMilestone(d.Cal, s)
	if err != nil {
		return Annotated{Stored: s.Status}, err
	}
	return Annotated{Stored: s.Status, Effective: Derive(KindSchedule, s.Status, nil, m, d.Today)}, nil
}

// PrimaryMilestone returns the date of the column owned by the schedule's
// type, falling back to the earliest set milestone. A set but malformed
// column is an ErrValidation; no milestone at all yields nil.
func PrimaryMilestone(cal Calendar, s *models.Schedule) (*time.Time, error) {
	var earliest *time.Time
	for _, m := range s.Milestones() {
		if m.Date == "" {
			continue
		}
		t, err := cal.ParseDate(m.Date)
		if err != nil {
			return nil, apperr.Validation(m.Column, "cannot parse %q", m.Date)
		}
		if m.Type == s.ScheduleType {
			return t, nil
		}
		if earliest == nil || t.Before(*earliest) {
			earliest = t
		}
	}
	return earliest, nil
}

func (d Deriver) window(startRaw, endRaw string) (*time.Time, *time.Time, error) {
	start, err := d.Cal.ParseDate(startRaw)
	if err != nil {
		return nil, nil, apperr.Validation("start_date", "cannot parse %q", startRaw)
	}
	end, err := d.Cal.ParseDate(endRaw)
	if err != nil {
		return nil, nil, apperr.Validation("end_date", "cannot parse %q", endRaw)
	}
	return start, end, nil
}
