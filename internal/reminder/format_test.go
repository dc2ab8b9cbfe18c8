package reminder

import (
	"testing"
	"time"

	"github.com/phmhse/csmstrack/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_Schedule(t *testing.T) {
	c := Candidate{
		RecordType:    RecordSchedule,
		RecordID:      "S1",
		Recipients:    []string{"hse@example.com"},
		MilestoneDate: time.Date(2024, 7, 3, 0, 0, 0, 0, jakarta),
		Label:         "HAZID/HAZOP",
		DaysUntil:     2,
		Reason:        "HAZID/HAZOP due in 2 days",
		ProjectName:   "Rig <A>",
		PICName:       "Budi",
	}
	msg, err := Compose(c)
	require.NoError(t, err)
	assert.Equal(t, "Schedule Reminder: HAZID/HAZOP - Rig <A>", msg.Subject)
	assert.Equal(t, []string{"hse@example.com"}, msg.To)
	assert.Contains(t, msg.HTML, "#e74c3c")
	assert.Contains(t, msg.HTML, "2024-07-03")
	assert.Contains(t, msg.HTML, "Rig &lt;A&gt;", "body is escaped")
	assert.Contains(t, msg.HTML, "Budi")
}

func TestCompose_RigDown(t *testing.T) {
	comp := score.Completion{Completed: 2, Total: 5, Percent: 40}
	c := Candidate{
		RecordType:    RecordProject,
		RecordID:      "P1",
		Recipients:    []string{"pic@example.com"},
		CC:            []string{"boss@example.com"},
		MilestoneDate: time.Date(2024, 7, 3, 0, 0, 0, 0, jakarta),
		Label:         rigDownLabel,
		DaysUntil:     2,
		ProjectName:   "Rig A",
		Completion:    &comp,
	}
	msg, err := Compose(c)
	require.NoError(t, err)
	assert.Equal(t, "[REMINDER] Project: Rig A - Rig Down due in 2 days", msg.Subject)
	assert.Equal(t, []string{"boss@example.com"}, msg.CC)
	assert.Contains(t, msg.HTML, "2/5 tasks (40%)")
	assert.Contains(t, msg.HTML, "3 tasks to complete")
	assert.Contains(t, msg.HTML, "Dear <strong>Team</strong>")
}

func TestCompose_Task(t *testing.T) {
	msg, err := Compose(Candidate{RecordType: RecordTask, Label: "Task 1.1 Policy", Recipients: []string{"a@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "Task Reminder: Task 1.1 Policy - Unknown Project", msg.Subject)
	assert.Contains(t, msg.HTML, defaultColor)
}
