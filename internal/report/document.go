// Package report assembles CSMS compliance reports in memory and encodes
// them as spreadsheet, printable or CSV artifacts.
//
// Every encoding is generated from the same Document, so the row count and
// the (id, status, score) triples always agree across formats.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/score"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/phmhse/csmstrack/internal/store"
)

// Selection chooses which records a report covers. ProjectID and the
// From/To range combine; All must be set to select everything explicitly.
type Selection struct {
	ProjectID string `json:"project_id,omitempty"`
	From      string `json:"from,omitempty"` // inclusive, YYYY-MM-DD
	To        string `json:"to,omitempty"`   // inclusive, YYYY-MM-DD
	All       bool   `json:"all,omitempty"`
}

// Scope returns the store scope needed to assemble the selection.
func (s Selection) Scope() store.Scope {
	return store.Scope{ProjectID: s.ProjectID}
}

type dateRange struct {
	from, to *time.Time
}

// overlaps reports whether [start, end] intersects the range. A missing
// start or end collapses to the other; an undated record only matches an
// unbounded range.
func (r dateRange) overlaps(start, end *time.Time) bool {
	if start == nil && end == nil {
		return r.from == nil && r.to == nil
	}
	if start == nil {
		start = end
	}
	if end == nil {
		end = start
	}
	if r.from != nil && end.Before(*r.from) {
		return false
	}
	if r.to != nil && start.After(*r.to) {
		return false
	}
	return true
}

func (s Selection) resolve(cal status.Calendar) (dateRange, error) {
	if !s.All && s.ProjectID == "" && s.From == "" && s.To == "" {
		return dateRange{}, apperr.Validation("selection", "choose a project, a date range or all")
	}
	from, err := cal.ParseDate(s.From)
	if err != nil {
		return dateRange{}, apperr.Validation("from", "cannot parse %q", s.From)
	}
	to, err := cal.ParseDate(s.To)
	if err != nil {
		return dateRange{}, apperr.Validation("to", "cannot parse %q", s.To)
	}
	if from != nil && to != nil && to.Before(*from) {
		return dateRange{}, apperr.Validation("to", "%s is before %s", s.To, s.From)
	}
	return dateRange{from: from, to: to}, nil
}

// Kind is the entity kind of a row. Its order is the row order within a project.
type Kind string

const (
	KindProject  Kind = "project"
	KindTask     Kind = "task"
	KindSchedule Kind = "schedule"
)

var kindOrder = map[Kind]int{KindProject: 0, KindTask: 1, KindSchedule: 2}

// Header is the column header shared by every encoding.
var Header = []string{"Project ID", "Project", "Type", "ID", "Code", "Title", "Start", "End", "Status", "Score", "PIC"}

// Row is one entity joined with its effective status and score.
type Row struct {
	ProjectID   string        `json:"project_id"`
	ProjectName string        `json:"project_name"`
	Kind        Kind          `json:"kind"`
	ID          string        `json:"id"`
	Code        string        `json:"code,omitempty"`
	Title       string        `json:"title"`
	Start       string        `json:"start,omitempty"`
	End         string        `json:"end,omitempty"`
	Status      status.Status `json:"status"`
	Stored      string        `json:"stored_status"`
	Score       string        `json:"score"` // task score, project aggregate, or "" for schedules
	PIC         string        `json:"pic,omitempty"`
}

// Cells returns the row in Header order.
func (r Row) Cells() []string {
	return []string{r.ProjectID, r.ProjectName, string(r.Kind), r.ID, r.Code, r.Title,
		r.Start, r.End, string(r.Status), r.Score, r.PIC}
}

// Triple is the identity of a row used to compare encodings.
func (r Row) Triple() string {
	return r.ID + "|" + string(r.Status) + "|" + r.Score
}

// Exclusion is a record left out because of malformed data.
type Exclusion struct {
	Kind   Kind   `json:"kind"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ProjectScoring is the element rating of one project for the Scoring sheet.
type ProjectScoring struct {
	ProjectID   string       `json:"project_id"`
	ProjectName string       `json:"project_name"`
	Rating      score.Rating `json:"rating"`
}

// Outcome classifies an assembled document.
type Outcome string

const (
	OutcomeEmpty    Outcome = "empty"
	OutcomePartial  Outcome = "partial"
	OutcomeComplete Outcome = "complete"
)

// Document is a fully materialised report.
type Document struct {
	Title       string           `json:"title"`
	GeneratedAt time.Time        `json:"generated_at"`
	Selection   Selection        `json:"selection"`
	Rows        []Row            `json:"rows"`
	Excluded    []Exclusion      `json:"excluded"`
	Scoring     []ProjectScoring `json:"scoring"`
	PB          []score.PBStat   `json:"pb"`
}

// Outcome reports whether the document is empty, partial or complete.
// Partial wins over empty: a selection whose only records were malformed is
// reported as partial with zero rows.
func (d *Document) Outcome() Outcome {
	switch {
	case len(d.Excluded) > 0:
		return OutcomePartial
	case len(d.Rows) == 0:
		return OutcomeEmpty
	}
	return OutcomeComplete
}

// Note is a one-line human summary of the outcome.
func (d *Document) Note() string {
	switch d.Outcome() {
	case OutcomeEmpty:
		return "no data for this selection"
	case OutcomePartial:
		return fmt.Sprintf("%d row(s); %d record(s) excluded for malformed data", len(d.Rows), len(d.Excluded))
	}
	return fmt.Sprintf("%d row(s)", len(d.Rows))
}

// Partial returns an ErrPartialEvaluation when rows were excluded.
func (d *Document) Partial() error {
	if len(d.Excluded) == 0 {
		return nil
	}
	return apperr.Partial(len(d.Excluded))
}

// Assemble builds a Document from snap. It fails only for an invalid
// selection or an unknown project; malformed records become Exclusions.
func Assemble(snap *store.Snapshot, sel Selection, cal status.Calendar, now time.Time) (*Document, error) {
	rng, err := sel.resolve(cal)
	if err != nil {
		return nil, fmt.Errorf("report: assemble: %w", err)
	}
	projects := snap.ProjectByID()
	if sel.ProjectID != "" {
		if _, ok := projects[sel.ProjectID]; !ok {
			return nil, fmt.Errorf("report: assemble: %w", apperr.NotFound("project", sel.ProjectID))
		}
	}

	a := assembly{cal: cal, rng: rng, der: status.NewDeriver(cal, now), projects: projects}
	doc := &Document{
		Title:       title(sel, projects),
		GeneratedAt: now,
		Selection:   sel,
		Rows:        []Row{},
		Excluded:    []Exclusion{},
		Scoring:     []ProjectScoring{},
	}

	byProject := snap.TasksByProject()
	for i := range snap.Projects {
		p := &snap.Projects[i]
		if sel.ProjectID != "" && p.ID != sel.ProjectID {
			continue
		}
		tasks := byProject[p.ID]
		scored, _ := score.Annotate(a.der, tasks)
		a.project(p, score.ProjectAggregate(scored))
		for j := range tasks {
			a.task(p, &tasks[j])
		}
		doc.Scoring = append(doc.Scoring, ProjectScoring{
			ProjectID:   p.ID,
			ProjectName: p.Name,
			Rating:      score.ElementRating(scored),
		})
	}
	for i := range snap.Schedules {
		s := &snap.Schedules[i]
		if sel.ProjectID != "" && s.ProjectID != sel.ProjectID {
			continue
		}
		a.schedule(s)
	}

	sort.SliceStable(a.rows, func(i, j int) bool {
		x, y := a.rows[i], a.rows[j]
		if x.ProjectID != y.ProjectID {
			return x.ProjectID < y.ProjectID
		}
		if x.Kind != y.Kind {
			return kindOrder[x.Kind] < kindOrder[y.Kind]
		}
		return x.ID < y.ID
	})
	sort.SliceStable(a.excluded, func(i, j int) bool {
		if a.excluded[i].Kind != a.excluded[j].Kind {
			return kindOrder[a.excluded[i].Kind] < kindOrder[a.excluded[j].Kind]
		}
		return a.excluded[i].ID < a.excluded[j].ID
	})
	if a.rows != nil {
		doc.Rows = a.rows
	}
	if a.excluded != nil {
		doc.Excluded = a.excluded
	}

	pb := snap.PB
	if sel.ProjectID != "" {
		pb = nil
		for _, r := range snap.PB {
			if r.ProjectID == sel.ProjectID {
				pb = append(pb, r)
			}
		}
	}
	doc.PB = score.PBSeries(pb)
	return doc, nil
}

type assembly struct {
	cal      status.Calendar
	rng      dateRange
	der      status.Deriver
	projects map[string]*models.Project
	rows     []Row
	excluded []Exclusion
}

func (a *assembly) exclude(k Kind, id string, err error) {
	a.excluded = append(a.excluded, Exclusion{Kind: k, ID: id, Reason: err.Error()})
}

func (a *assembly) project(p *models.Project, agg score.Aggregate) {
	ann, err := a.der.Project(p)
	if err != nil {
		a.exclude(KindProject, p.ID, err)
		return
	}
	start, end := a.window(p.StartDate, p.EndDate)
	if !a.rng.overlaps(start, end) {
		return
	}
	a.rows = append(a.rows, Row{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Kind:        KindProject,
		ID:          p.ID,
		Title:       p.Name,
		Start:       a.format(start),
		End:         a.format(end),
		Status:      ann.Effective,
		Stored:      p.Status,
		Score:       agg.String(),
		PIC:         p.PICName,
	})
}

func (a *assembly) task(p *models.Project, t *models.Task) {
	ann, err := a.der.Task(t)
	if err != nil {
		a.exclude(KindTask, t.ID, err)
		return
	}
	start, end := a.window(t.StartDate, t.EndDate)
	if !a.rng.overlaps(start, end) {
		return
	}
	a.rows = append(a.rows, Row{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Kind:        KindTask,
		ID:          t.ID,
		Code:        t.Code,
		Title:       t.Title,
		Start:       a.format(start),
		End:         a.format(end),
		Status:      ann.Effective,
		Stored:      t.Status,
		Score:       strconv.Itoa(t.Score),
		PIC:         p.PICName,
	})
}

// schedule adds a schedule when any of its milestones falls in range.
func (a *assembly) schedule(s *models.Schedule) {
	ann, err := a.der.Schedule(s)
	if err != nil {
		a.exclude(KindSchedule, s.ID, err)
		return
	}
	var first, last *time.Time
	var labels []string
	hit := a.rng.from == nil && a.rng.to == nil
	for _, m := range s.Milestones() {
		d, _ := a.cal.ParseDate(m.Date)
		if d == nil {
			continue
		}
		labels = append(labels, m.Label)
		if first == nil || d.Before(*first) {
			first = d
		}
		if last == nil || d.After(*last) {
			last = d
		}
		if a.rng.overlaps(d, d) {
			hit = true
		}
	}
	if !hit {
		return
	}
	name := s.ProjectName
	if p, ok := a.projects[s.ProjectID]; ok && name == "" {
		name = p.Name
	}
	a.rows = append(a.rows, Row{
		ProjectID:   s.ProjectID,
		ProjectName: name,
		Kind:        KindSchedule,
		ID:          s.ID,
		Code:        s.ScheduleType,
		Title:       strings.Join(labels, ", "),
		Start:       a.format(first),
		End:         a.format(last),
		Status:      ann.Effective,
		Stored:      s.Status,
		PIC:         s.PICName,
	})
}

// window parses dates already validated by the deriver.
func (a *assembly) window(startRaw, endRaw string) (*time.Time, *time.Time) {
	start, _ := a.cal.ParseDate(startRaw)
	end, _ := a.cal.ParseDate(endRaw)
	return start, end
}

func (a *assembly) format(t *time.Time) string {
	if t == nil {
		return ""
	}
	return a.cal.FormatDate(*t)
}

func title(sel Selection, projects map[string]*models.Project) string {
	t := "CSMS Compliance Report"
	if p, ok := projects[sel.ProjectID]; ok {
		t += " - " + p.Name
	}
	switch {
	case sel.From != "" && sel.To != "":
		t += fmt.Sprintf(" (%s to %s)", sel.From, sel.To)
	case sel.From != "":
		t += " (from " + sel.From + ")"
	case sel.To != "":
		t += " (until " + sel.To + ")"
	}
	return t
}
