// Package score aggregates discrete task scores and CSMS-PB period scores.
// Everything here is read-time computation; nothing is written back.
package score

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/status"
)

// Allowed task score values.
var allowed = [...]int{0, 3, 6, 10}

// Allowed returns the accepted task score values in ascending order.
func Allowed() []int { return allowed[:] }

// ValidTaskScore reports whether n is one of 0, 3, 6 or 10.
func ValidTaskScore(n int) bool {
	for _, a := range allowed {
		if n == a {
			return true
		}
	}
	return false
}

// ValidateTaskScore rejects a score outside the allowed set before any write.
func ValidateTaskScore(n int) error {
	if !ValidTaskScore(n) {
		return apperr.Validation("score", "%d is not one of 0, 3, 6, 10", n)
	}
	return nil
}

// Scored is a task joined with its effective status.
type Scored struct {
	TaskID    string
	ProjectID string
	Code      string
	Title     string
	Status    status.Status
	Score     int
}

// Annotate derives the effective status of each task. A task whose dates do
// not parse keeps its normalised stored status and its error is returned
// alongside, so one bad row never hides the others.
func Annotate(d status.Deriver, tasks []models.Task) ([]Scored, []error) {
	out := make([]Scored, 0, len(tasks))
	var errs []error
	for i := range tasks {
		t := &tasks[i]
		a, err := d.Task(t)
		if err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", t.ID, err))
			a.Effective = status.Normalize(status.KindTask, t.Status)
		}
		out = append(out, Scored{
			TaskID:    t.ID,
			ProjectID: t.ProjectID,
			Code:      t.Code,
			Title:     t.Title,
			Status:    a.Effective,
			Score:     t.Score,
		})
	}
	return out, errs
}

// Aggregate is a project's task-derived score. Valid is false when no task
// is eligible, which renders as "no data" and never as zero.
type Aggregate struct {
	Value    float64
	Eligible int
	Valid    bool
}

// String renders the aggregate with one decimal, or "no data".
func (a Aggregate) String() string {
	if !a.Valid {
		return "no data"
	}
	return fmt.Sprintf("%.1f", a.Value)
}

// MarshalJSON encodes an undefined aggregate as a null value.
func (a Aggregate) MarshalJSON() ([]byte, error) {
	var v *float64
	if a.Valid {
		r := round(a.Value, 2)
		v = &r
	}
	return json.Marshal(struct {
		Value    *float64 `json:"value"`
		Eligible int      `json:"eligible"`
		Display  string   `json:"display"`
	}{v, a.Eligible, a.String()})
}

// ProjectAggregate is the arithmetic mean of the scores of tasks that are not
// Upcoming. Tasks that have not started never penalise the project.
func ProjectAggregate(tasks []Scored) Aggregate {
	sum, n := 0, 0
	for _, t := range tasks {
		if t.Status == status.Upcoming {
			continue
		}
		sum += t.Score
		n++
	}
	if n == 0 {
		return Aggregate{}
	}
	return Aggregate{Value: float64(sum) / float64(n), Eligible: n, Valid: true}
}

// Completion is the share of tasks whose effective status is Completed.
type Completion struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// CompletionOf counts completed tasks. Zero tasks is 0%.
func CompletionOf(tasks []Scored) Completion {
	c := Completion{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == status.Completed {
			c.Completed++
		}
	}
	if c.Total > 0 {
		c.Percent = float64(c.Completed) / float64(c.Total) * 100
	}
	return c
}

// Band classifies a PB score.
type Band string

const (
	BandCritical Band = "critical"
	BandWarning  Band = "warning"
	BandGood     Band = "good"
)

// BandFor returns critical below 60, warning below 80, good otherwise.
func BandFor(score float64) Band {
	switch {
	case score < 60:
		return BandCritical
	case score < 80:
		return BandWarning
	}
	return BandGood
}

// PBPoint is one recorded period.
type PBPoint struct {
	Period string  `json:"period"`
	Score  float64 `json:"score"`
}

// PBStat summarises one project's CSMS-PB series.
type PBStat struct {
	ProjectID string    `json:"project_id"`
	Points    []PBPoint `json:"points"`
	Average   float64   `json:"average_score"`
	Latest    float64   `json:"latest_score"`
	Count     int       `json:"record_count"`
	Band      Band      `json:"status"`
}

// PBSeries groups PB records by project, each ordered by period. Projects
// are returned in id order. Records whose project no longer exists are
// still included.
func PBSeries(records []models.CsmsPB) []PBStat {
	byProject := make(map[string][]models.CsmsPB)
	for _, r := range records {
		byProject[r.ProjectID] = append(byProject[r.ProjectID], r)
	}
	ids := make([]string, 0, len(byProject))
	for id := range byProject {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]PBStat, 0, len(ids))
	for _, id := range ids {
		recs := byProject[id]
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].Period != recs[j].Period {
				return recs[i].Period < recs[j].Period
			}
			return recs[i].ID < recs[j].ID
		})
		st := PBStat{ProjectID: id, Count: len(recs)}
		var sum float64
		for _, r := range recs {
			st.Points = append(st.Points, PBPoint{Period: r.Period, Score: r.Score})
			sum += r.Score
		}
		st.Average = round(sum/float64(len(recs)), 1)
		st.Latest = recs[len(recs)-1].Score
		st.Band = BandFor(st.Latest)
		out = append(out, st)
	}
	return out
}

// Summary places the task-derived and period-recorded series side by side.
// The two are never reconciled.
type Summary struct {
	ProjectID  string     `json:"project_id"`
	Aggregate  Aggregate  `json:"aggregate"`
	Completion Completion `json:"completion"`
	PB         *PBStat    `json:"csms_pb,omitempty"`
}

// Summarize builds a Summary for one project. tasks and records may contain
// other projects' rows; only projectID's are used.
func Summarize(projectID string, tasks []Scored, records []models.CsmsPB) Summary {
	var own []Scored
	for _, t := range tasks {
		if t.ProjectID == projectID {
			own = append(own, t)
		}
	}
	s := Summary{
		ProjectID:  projectID,
		Aggregate:  ProjectAggregate(own),
		Completion: CompletionOf(own),
	}
	var pb []models.CsmsPB
	for _, r := range records {
		if r.ProjectID == projectID {
			pb = append(pb, r)
		}
	}
	if series := PBSeries(pb); len(series) == 1 {
		s.PB = &series[0]
	}
	return s
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
