// Package reminder decides which schedules, tasks and projects need a
// reminder right now, and dispatches those reminders exactly once per
// idempotency key.
//
// Evaluate is pure: the same records and the same instant always produce the
// same candidates in the same order. It never fails on a bad record; the
// record is skipped and a Diagnostic explains why. Evaluate's output is only a
// candidate set. At-most-once delivery across runs is the Dispatcher's job,
// which checks a persisted mark per IdempotencyKey before sending.
package reminder

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/mailer"
	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/score"
	"github.com/phmhse/csmstrack/internal/status"
)

// RecordType names the kind of record a candidate came from.
type RecordType string

const (
	RecordSchedule RecordType = "schedule"
	RecordTask     RecordType = "task"
	RecordProject  RecordType = "project"
)

// rigDownLabel labels project rig-down candidates.
const rigDownLabel = "Rig Down"

// Input is the record set for one evaluation.
type Input struct {
	Projects  []models.Project
	Tasks     []models.Task
	Schedules []models.Schedule
	Now       time.Time
	Calendar  status.Calendar
}

// Options tunes the evaluation.
type Options struct {
	LookaheadDays       int     // schedules and tasks: due when 0 <= days-until <= LookaheadDays
	RigDownDays         int     // projects: due when 0 <= days-until-rig-down <= RigDownDays
	CompletionThreshold float64 // projects: only when task completion is below this percentage
	FallbackRecipient   string  // used when a record has no contact of its own
}

// Candidate is one reminder that should go out.
type Candidate struct {
	RecordType    RecordType `json:"record_type"`
	RecordID      string     `json:"record_id"`
	Recipients    []string   `json:"recipients"`
	CC            []string   `json:"cc,omitempty"`
	MilestoneDate time.Time  `json:"milestone_date"`
	Label         string     `json:"label"`
	DaysUntil     int        `json:"days_until"`
	Reason        string     `json:"reason"`

	// Context for message bodies.
	ProjectName string            `json:"project_name,omitempty"`
	WellName    string            `json:"well_name,omitempty"`
	PICName     string            `json:"pic_name,omitempty"`
	Completion  *score.Completion `json:"completion,omitempty"`
}

// Date returns the milestone date as YYYY-MM-DD.
func (c Candidate) Date() string {
	return c.MilestoneDate.Format("2006-01-02")
}

// Diagnostic explains why a record was left out.
type Diagnostic struct {
	RecordType RecordType `json:"record_type"`
	RecordID   string     `json:"record_id"`
	Field      string     `json:"field,omitempty"`
	Message    string     `json:"message"`
}

// Result is the outcome of one evaluation.
type Result struct {
	Candidates  []Candidate  `json:"candidates"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Partial returns an ErrPartialEvaluation when any record was skipped, nil
// otherwise. It is informational: the candidates are still valid.
func (r Result) Partial() error {
	if len(r.Diagnostics) == 0 {
		return nil
	}
	return apperr.Partial(len(r.Diagnostics))
}

type evaluation struct {
	in    Input
	opts  Options
	today time.Time
	der   status.Deriver
	seen  map[string]bool
	res   Result
}

// Evaluate selects the due records in in.
func Evaluate(in Input, opts Options) Result {
	der := status.NewDeriver(in.Calendar, in.Now)
	e := &evaluation{
		in:    in,
		opts:  opts,
		today: der.Today,
		der:   der,
		seen:  make(map[string]bool),
	}
	e.res.Candidates = []Candidate{}
	e.res.Diagnostics = []Diagnostic{}

	projects := make(map[string]*models.Project, len(in.Projects))
	for i := range in.Projects {
		projects[in.Projects[i].ID] = &in.Projects[i]
	}

	for i := range in.Schedules {
		e.schedule(&in.Schedules[i])
	}
	for i := range in.Tasks {
		e.task(&in.Tasks[i], projects[in.Tasks[i].ProjectID])
	}
	tasksByProject := make(map[string][]models.Task)
	for _, t := range in.Tasks {
		tasksByProject[t.ProjectID] = append(tasksByProject[t.ProjectID], t)
	}
	for i := range in.Projects {
		e.rigDown(&in.Projects[i], tasksByProject[in.Projects[i].ID])
	}

	sort.SliceStable(e.res.Candidates, func(i, j int) bool {
		a, b := e.res.Candidates[i], e.res.Candidates[j]
		if !a.MilestoneDate.Equal(b.MilestoneDate) {
			return a.MilestoneDate.Before(b.MilestoneDate)
		}
		if a.RecordID != b.RecordID {
			return a.RecordID < b.RecordID
		}
		return a.RecordType < b.RecordType
	})
	sort.SliceStable(e.res.Diagnostics, func(i, j int) bool {
		a, b := e.res.Diagnostics[i], e.res.Diagnostics[j]
		if a.RecordType != b.RecordType {
			return a.RecordType < b.RecordType
		}
		if a.RecordID != b.RecordID {
			return a.RecordID < b.RecordID
		}
		return a.Field < b.Field
	})
	return e.res
}

func (e *evaluation) diag(rt RecordType, id, field, format string, args ...any) {
	e.res.Diagnostics = append(e.res.Diagnostics, Diagnostic{
		RecordType: rt,
		RecordID:   id,
		Field:      field,
		Message:    fmt.Sprintf(format, args...),
	})
}

// add appends c unless its (type, id, date) was already taken this run.
func (e *evaluation) add(c Candidate) {
	key := string(c.RecordType) + "|" + c.RecordID + "|" + c.Date()
	if e.seen[key] {
		return
	}
	e.seen[key] = true
	e.res.Candidates = append(e.res.Candidates, c)
}

// inWindow reports the day distance to d and whether it lies in [0, window].
func (e *evaluation) inWindow(d time.Time, window int) (int, bool) {
	days := e.in.Calendar.DaysUntil(e.today, d)
	return days, days >= 0 && days <= window
}

func (e *evaluation) recipients(raw string) []string {
	to := mailer.SplitAddresses(raw)
	if len(to) == 0 && e.opts.FallbackRecipient != "" {
		to = []string{e.opts.FallbackRecipient}
	}
	return to
}

func (e *evaluation) schedule(s *models.Schedule) {
	if status.IsTerminal(status.KindSchedule, status.Normalize(status.KindSchedule, s.Status)) {
		return
	}
	hasDate := false
	var due []Candidate
	for _, m := range s.Milestones() {
		if strings.TrimSpace(m.Date) == "" {
			continue
		}
		hasDate = true
		d, err := e.in.Calendar.ParseDate(m.Date)
		if err != nil {
			e.diag(RecordSchedule, s.ID, m.Column, "unparseable date %q", m.Date)
			continue
		}
		days, ok := e.inWindow(*d, e.opts.LookaheadDays)
		if !ok {
			continue
		}
		due = append(due, Candidate{
			RecordType:    RecordSchedule,
			RecordID:      s.ID,
			MilestoneDate: *d,
			Label:         m.Label,
			DaysUntil:     days,
			Reason:        m.Label + " " + dueIn(days),
			ProjectName:   s.ProjectName,
			WellName:      s.WellName,
			PICName:       s.PICName,
		})
	}
	if !hasDate {
		e.diag(RecordSchedule, s.ID, "", "no milestone date set")
		return
	}
	if len(due) == 0 {
		return
	}
	to := e.recipients(s.AssignedToEmail)
	if len(to) == 0 {
		e.diag(RecordSchedule, s.ID, "assigned_to_email", "no recipient")
		return
	}
	for _, c := range due {
		c.Recipients = to
		e.add(c)
	}
}

func (e *evaluation) task(t *models.Task, p *models.Project) {
	start, err := e.in.Calendar.ParseDate(t.StartDate)
	if err != nil {
		e.diag(RecordTask, t.ID, "start_date", "unparseable date %q", t.StartDate)
		return
	}
	end, err := e.in.Calendar.ParseDate(t.EndDate)
	if err != nil {
		e.diag(RecordTask, t.ID, "end_date", "unparseable date %q", t.EndDate)
		return
	}
	if end == nil {
		return // nothing to remind about
	}
	if p != nil && status.IsTerminal(status.KindProject, status.Normalize(status.KindProject, p.Status)) {
		return
	}
	if status.IsTerminal(status.KindTask, status.Derive(status.KindTask, t.Status, start, end, e.today)) {
		return
	}
	days, ok := e.inWindow(*end, e.opts.LookaheadDays)
	if !ok {
		return
	}
	label := strings.TrimSpace("Task " + t.Code + " " + t.Title)
	c := Candidate{
		RecordType:    RecordTask,
		RecordID:      t.ID,
		MilestoneDate: *end,
		Label:         label,
		DaysUntil:     days,
		Reason:        label + " " + dueIn(days),
	}
	var pic, cc string
	if p != nil {
		pic, cc = p.PICEmail, p.PICManagerEmail
		c.ProjectName, c.WellName, c.PICName = p.Name, p.WellName, p.PICName
	}
	c.Recipients = e.recipients(pic)
	c.CC = mailer.SplitAddresses(cc)
	if len(c.Recipients) == 0 {
		e.diag(RecordTask, t.ID, "pic_email", "no recipient on owning project %q", t.ProjectID)
		return
	}
	e.add(c)
}

func (e *evaluation) rigDown(p *models.Project, tasks []models.Task) {
	if strings.TrimSpace(p.RigDownDate) == "" {
		return
	}
	d, err := e.in.Calendar.ParseDate(p.RigDownDate)
	if err != nil {
		e.diag(RecordProject, p.ID, "rig_down_date", "unparseable date %q", p.RigDownDate)
		return
	}
	if status.IsTerminal(status.KindProject, status.Normalize(status.KindProject, p.Status)) {
		return
	}
	days, ok := e.inWindow(*d, e.opts.RigDownDays)
	if !ok {
		return
	}
	scored, _ := score.Annotate(e.der, tasks)
	comp := score.CompletionOf(scored)
	if comp.Total == 0 || comp.Percent >= e.opts.CompletionThreshold {
		return
	}
	to := e.recipients(p.PICEmail)
	if len(to) == 0 {
		e.diag(RecordProject, p.ID, "pic_email", "no recipient")
		return
	}
	e.add(Candidate{
		RecordType:    RecordProject,
		RecordID:      p.ID,
		Recipients:    to,
		CC:            mailer.SplitAddresses(p.PICManagerEmail),
		MilestoneDate: *d,
		Label:         rigDownLabel,
		DaysUntil:     days,
		Reason:        fmt.Sprintf("%s %s, %.0f%% complete", rigDownLabel, dueIn(days), comp.Percent),
		ProjectName:   p.Name,
		WellName:      p.WellName,
		PICName:       p.PICName,
		Completion:    &comp,
	})
}

// dueIn phrases a day distance: "due today", "due in 1 day", "due in 3 days".
func dueIn(days int) string {
	switch days {
	case 0:
		return "due today"
	case 1:
		return "due in 1 day"
	}
	return fmt.Sprintf("due in %d days", days)
}
