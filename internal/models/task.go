package models

import (
	"time"

	"gorm.io/datatypes"
)

// Task statuses as stored.
const (
	TaskUpcoming   = "Upcoming"
	TaskInProgress = "In Progress"
	TaskCompleted  = "Completed"
)

// Task is one CSMS checklist item under a project.
type Task struct {
	ID          string                          `gorm:"primaryKey;size:36" json:"id"`
	ProjectID   string                          `gorm:"size:36;not null;index" json:"project_id"`
	Code        string                          `gorm:"size:16;index" json:"code"`
	Title       string                          `gorm:"size:512;not null" json:"title"`
	Category    string                          `gorm:"size:64" json:"category"`
	Description string                          `gorm:"type:text" json:"description"`
	Status      string                          `gorm:"size:16;default:Upcoming;index" json:"status"`
	StartDate   string                          `gorm:"size:32" json:"start_date"`
	EndDate     string                          `gorm:"size:32" json:"end_date"`
	Score       int                             `gorm:"not null;default:0" json:"score"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`
	CreatedAt   time.Time                       `json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}
