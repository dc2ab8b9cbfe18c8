package models

import "time"

// Project statuses as stored. Overdue is never stored; see internal/status.
const (
	ProjectUpcoming   = "Upcoming"
	ProjectInProgress = "InProgress"
	ProjectCompleted  = "Completed"
	ProjectOnHold     = "OnHold"

	// ProjectOngoing is the legacy spelling of InProgress found in old rows.
	ProjectOngoing = "Ongoing"
)

// Project is a contractor engagement tracked for CSMS compliance.
type Project struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	WellName        string    `gorm:"size:255" json:"well_name"`
	ContractNo      string    `gorm:"size:128" json:"contract_no"`
	RiskLevel       string    `gorm:"size:32" json:"risk_level"`
	StartDate       string    `gorm:"size:32" json:"start_date"`
	EndDate         string    `gorm:"size:32" json:"end_date"`
	RigDownDate     string    `gorm:"size:32" json:"rig_down_date"`
	Status          string    `gorm:"size:16;default:Upcoming;index" json:"status"`
	ContractValue   float64   `json:"contract_value"`
	PICName         string    `gorm:"size:255" json:"pic_name"`
	PICEmail        string    `gorm:"size:512" json:"pic_email"`
	PICManagerEmail string    `gorm:"size:512" json:"pic_manager_email"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Tasks []Task       `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Docs  []RelatedDoc `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}
