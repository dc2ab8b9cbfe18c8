package models

import (
	"time"

	"gorm.io/datatypes"
)

// CsmsPB is a CSMS performance-based (PB) evaluation for one reporting period.
// ProjectID is a weak reference and survives project deletion.
type CsmsPB struct {
	ID          string                          `gorm:"primaryKey;size:36" json:"id"`
	ProjectID   string                          `gorm:"size:36;uniqueIndex:idx_pb_project_period" json:"project_id"`
	WellName    string                          `gorm:"size:255" json:"well_name"`
	Period      string                          `gorm:"size:32;uniqueIndex:idx_pb_project_period" json:"period"`
	Score       float64                         `json:"score"`
	Notes       string                          `gorm:"type:text" json:"notes"`
	PICName     string                          `gorm:"size:255" json:"pic_name"`
	PICWhatsApp string                          `gorm:"size:64" json:"pic_whatsapp"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`
	CreatedAt   time.Time                       `json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}

// TableName keeps the singular table name existing deployments use.
func (CsmsPB) TableName() string { return "csms_pb" }
