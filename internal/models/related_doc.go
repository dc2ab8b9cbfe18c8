package models

import "time"

// RelatedDoc is a supporting document uploaded for a project. Reference is
// opaque and owned by the storage collaborator.
type RelatedDoc struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID string    `gorm:"size:36;not null;index" json:"project_id"`
	WellName  string    `gorm:"size:255" json:"well_name"`
	DocName   string    `gorm:"size:255;not null" json:"doc_name"`
	Filename  string    `gorm:"size:512" json:"filename"`
	Reference string    `gorm:"size:512" json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}
