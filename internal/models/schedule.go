package models

import "time"

// Schedule statuses as stored.
const (
	ScheduleScheduled = "Scheduled"
	ScheduleDone      = "Done"
)

// Schedule types. Each one owns a milestone column on Schedule.
const (
	ScheduleMWT          = "mwt"
	ScheduleHSECommittee = "hse_committee"
	ScheduleCSMSPB       = "csms_pb"
	ScheduleHSEPlan      = "hse_plan"
	ScheduleSPR          = "spr"
	ScheduleHazidHazop   = "hazid_hazop"
)

// Schedule is a planned inspection, meeting or review. ProjectID is a weak
// reference: schedules outlive the project they were planned for.
type Schedule struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID       string    `gorm:"size:36;index" json:"project_id"`
	ProjectName     string    `gorm:"size:255" json:"project_name"`
	WellName        string    `gorm:"size:255" json:"well_name"`
	ScheduleType    string    `gorm:"size:32;default:mwt" json:"schedule_type"`
	MWTPlanDate     string    `gorm:"size:32" json:"mwt_plan_date"`
	HSEMeetingDate  string    `gorm:"size:32" json:"hse_meeting_date"`
	CSMSPBDate      string    `gorm:"size:32" json:"csms_pb_date"`
	HSEPlanDate     string    `gorm:"size:32" json:"hse_plan_date"`
	SPRDate         string    `gorm:"size:32" json:"spr_date"`
	HazidHazopDate  string    `gorm:"size:32" json:"hazid_hazop_date"`
	PICName         string    `gorm:"size:255" json:"pic_name"`
	AssignedToEmail string    `gorm:"size:512" json:"assigned_to_email"`
	Status          string    `gorm:"size:16;default:Scheduled;index" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Milestone is one dated column of a Schedule.
type Milestone struct {
	Type   string `json:"type"`   // schedule type owning the column
	Column string `json:"column"` // column name, e.g. "hazid_hazop_date"
	Label  string `json:"label"`  // human name used in reminders, e.g. "HAZID/HAZOP"
	Date   string `json:"date"`   // raw stored value, possibly empty
}

// milestoneLabels maps schedule types to display names, in column order.
var milestoneLabels = []struct{ typ, column, label string }{
	{ScheduleMWT, "mwt_plan_date", "MWT Plan"},
	{ScheduleHSECommittee, "hse_meeting_date", "HSE Committee Meeting"},
	{ScheduleCSMSPB, "csms_pb_date", "CSMS PB Audit"},
	{ScheduleHSEPlan, "hse_plan_date", "HSE Plan"},
	{ScheduleSPR, "spr_date", "SPR Review"},
	{ScheduleHazidHazop, "hazid_hazop_date", "HAZID/HAZOP"},
}

// ScheduleTypes returns every known schedule type in column order.
func ScheduleTypes() []string {
	out := make([]string, len(milestoneLabels))
	for i, m := range milestoneLabels {
		out[i] = m.typ
	}
	return out
}

// MilestoneLabel returns the display name for a schedule type, or "" if unknown.
func MilestoneLabel(scheduleType string) string {
	for _, m := range milestoneLabels {
		if m.typ == scheduleType {
			return m.label
		}
	}
	return ""
}

// Milestones returns every milestone column in fixed column order, including
// empty ones.
func (s *Schedule) Milestones() []Milestone {
	dates := map[string]string{
		ScheduleMWT:          s.MWTPlanDate,
		ScheduleHSECommittee: s.HSEMeetingDate,
		ScheduleCSMSPB:       s.CSMSPBDate,
		ScheduleHSEPlan:      s.HSEPlanDate,
		ScheduleSPR:          s.SPRDate,
		ScheduleHazidHazop:   s.HazidHazopDate,
	}
	out := make([]Milestone, 0, len(milestoneLabels))
	for _, m := range milestoneLabels {
		out = append(out, Milestone{Type: m.typ, Column: m.column, Label: m.label, Date: dates[m.typ]})
	}
	return out
}
