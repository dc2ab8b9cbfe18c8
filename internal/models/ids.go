package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// BeforeCreate assigns a UUID when none was supplied.
func (p *Project) BeforeCreate(*gorm.DB) error { newID(&p.ID); return nil }

// BeforeCreate assigns a UUID when none was supplied.
func (t *Task) BeforeCreate(*gorm.DB) error { newID(&t.ID); return nil }

// BeforeCreate assigns a UUID when none was supplied.
func (s *Schedule) BeforeCreate(*gorm.DB) error { newID(&s.ID); return nil }

// BeforeCreate assigns a UUID when none was supplied.
func (c *Comment) BeforeCreate(*gorm.DB) error { newID(&c.ID); return nil }

// BeforeCreate assigns a UUID when none was supplied.
func (r *CsmsPB) BeforeCreate(*gorm.DB) error { newID(&r.ID); return nil }

// BeforeCreate assigns a UUID when none was supplied.
func (d *RelatedDoc) BeforeCreate(*gorm.DB) error { newID(&d.ID); return nil }
