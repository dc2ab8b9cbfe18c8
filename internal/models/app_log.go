package models

import "time"

// App log levels.
const (
	LogInfo  = "INFO"
	LogWarn  = "WARN"
	LogError = "ERROR"
)

// AppLog is an append-only operational log row.
type AppLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Level     string    `gorm:"size:8;index" json:"level"`
	Service   string    `gorm:"size:64;index" json:"service"`
	Message   string    `gorm:"type:text" json:"message"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
