package models

import "time"

// ReminderMark records that a reminder for an idempotency key was claimed.
// It is the persisted "last notified" marker the reminder dispatcher checks
// before sending.
type ReminderMark struct {
	Key           string    `gorm:"primaryKey;size:255"`
	RecordType    string    `gorm:"size:16;index:idx_mark_record"`
	RecordID      string    `gorm:"size:36;index:idx_mark_record"`
	MilestoneDate string    `gorm:"size:32"`
	NotifiedAt    time.Time `gorm:"not null"`
}
