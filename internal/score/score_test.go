package score

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTaskScore(t *testing.T) {
	for _, n := range []int{0, 3, 6, 10} {
		assert.NoError(t, ValidateTaskScore(n), n)
	}
	for _, n := range []int{-3, 1, 5, 7, 11, 100} {
		err := ValidateTaskScore(n)
		assert.ErrorIs(t, err, apperr.ErrValidation, n)
	}
}

func TestProjectAggregate_ExcludesUpcoming(t *testing.T) {
	tasks := []Scored{
		{TaskID: "T1", ProjectID: "P1", Score: 6, Status: status.TaskInProgress},
		{TaskID: "T2", ProjectID: "P1", Score: 0, Status: status.Upcoming},
		{TaskID: "T3", ProjectID: "P1", Score: 10, Status: status.Completed},
	}
	agg := ProjectAggregate(tasks)
	require.True(t, agg.Valid)
	assert.Equal(t, 8.0, agg.Value)
	assert.Equal(t, 2, agg.Eligible)
	assert.Equal(t, "8.0", agg.String())
}

func TestProjectAggregate_UpcomingNeverChangesIt(t *testing.T) {
	base := []Scored{
		{TaskID: "a", Score: 3, Status: status.Overdue},
		{TaskID: "b", Score: 10, Status: status.Completed},
		{TaskID: "c", Score: 6, Status: status.TaskInProgress},
	}
	want := ProjectAggregate(base)
	for _, s := range Allowed() {
		got := ProjectAggregate(append(append([]Scored{}, base...), Scored{TaskID: "u", Score: s, Status: status.Upcoming}))
		assert.Equal(t, want, got, "upcoming task with score %d", s)
	}
}

func TestProjectAggregate_NoData(t *testing.T) {
	agg := ProjectAggregate([]Scored{{Score: 10, Status: status.Upcoming}})
	assert.False(t, agg.Valid)
	assert.Equal(t, "no data", agg.String())
	assert.Equal(t, "no data", ProjectAggregate(nil).String())

	b, err := json.Marshal(agg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":null,"eligible":0,"display":"no data"}`, string(b))
}

func TestProjectAggregate_ZeroScoresAreData(t *testing.T) {
	agg := ProjectAggregate([]Scored{{Score: 0, Status: status.TaskInProgress}})
	require.True(t, agg.Valid)
	assert.Equal(t, 0.0, agg.Value)
	assert.Equal(t, "0.0", agg.String())
}

func TestAnnotate(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Jakarta")
	d := status.NewDeriver(status.NewCalendar(loc), time.Date(2024, 7, 1, 8, 0, 0, 0, loc))
	tasks := []models.Task{
		{ID: "T1", ProjectID: "P1", Score: 6, Status: "In Progress", StartDate: "2024-06-01", EndDate: "2024-08-01"},
		{ID: "T2", ProjectID: "P1", Score: 0, Status: "Upcoming", StartDate: "2024-09-01"},
		{ID: "T3", ProjectID: "P1", Score: 10, Status: "Completed", EndDate: "2024-01-01"},
		{ID: "T4", ProjectID: "P1", Score: 3, Status: "Upcoming", EndDate: "not-a-date"},
	}
	scored, errs := Annotate(d, tasks)
	require.Len(t, scored, 4)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], apperr.ErrValidation)
	assert.Contains(t, errs[0].Error(), "T4")

	assert.Equal(t, status.TaskInProgress, scored[0].Status)
	assert.Equal(t, status.Upcoming, scored[1].Status)
	assert.Equal(t, status.Completed, scored[2].Status)
	assert.Equal(t, status.Upcoming, scored[3].Status, "falls back to stored status")

	agg := ProjectAggregate(scored)
	assert.Equal(t, 8.0, agg.Value)
}

func TestCompletionOf(t *testing.T) {
	c := CompletionOf([]Scored{
		{Status: status.Completed},
		{Status: status.Completed},
		{Status: status.Overdue},
		{Status: status.Upcoming},
	})
	assert.Equal(t, Completion{Completed: 2, Total: 4, Percent: 50}, c)
	assert.Equal(t, Completion{}, CompletionOf(nil))
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandCritical, BandFor(0))
	assert.Equal(t, BandCritical, BandFor(59.9))
	assert.Equal(t, BandWarning, BandFor(60))
	assert.Equal(t, BandWarning, BandFor(79.99))
	assert.Equal(t, BandGood, BandFor(80))
	assert.Equal(t, BandGood, BandFor(100))
}

func TestPBSeries(t *testing.T) {
	records := []models.CsmsPB{
		{ID: "r3", ProjectID: "P2", Period: "2024-Q1", Score: 90},
		{ID: "r2", ProjectID: "P1", Period: "2024-Q2", Score: 55},
		{ID: "r1", ProjectID: "P1", Period: "2024-Q1", Score: 70},
		{ID: "r4", ProjectID: "gone", Period: "2023-Q4", Score: 75},
	}
	series := PBSeries(records)
	require.Len(t, series, 3)

	assert.Equal(t, "P1", series[0].ProjectID)
	assert.Equal(t, []PBPoint{{"2024-Q1", 70}, {"2024-Q2", 55}}, series[0].Points)
	assert.Equal(t, 62.5, series[0].Average)
	assert.Equal(t, 55.0, series[0].Latest)
	assert.Equal(t, 2, series[0].Count)
	assert.Equal(t, BandCritical, series[0].Band)

	assert.Equal(t, "P2", series[1].ProjectID)
	assert.Equal(t, BandGood, series[1].Band)

	assert.Equal(t, "gone", series[2].ProjectID, "weakly referenced records survive")
	assert.Equal(t, BandWarning, series[2].Band)
}

func TestSummarize_SideBySide(t *testing.T) {
	tasks := []Scored{
		{ProjectID: "P1", Score: 10, Status: status.Completed},
		{ProjectID: "P2", Score: 0, Status: status.Completed},
	}
	pb := []models.CsmsPB{{ID: "x", ProjectID: "P1", Period: "2024-01", Score: 40}}

	s := Summarize("P1", tasks, pb)
	assert.Equal(t, 10.0, s.Aggregate.Value)
	require.NotNil(t, s.PB)
	assert.Equal(t, 40.0, s.PB.Latest, "PB series is not derived from task scores")
	assert.Equal(t, 100.0, s.Completion.Percent)

	s = Summarize("P3", tasks, pb)
	assert.False(t, s.Aggregate.Valid)
	assert.Nil(t, s.PB)
}
