package models

import (
	"time"

	"gorm.io/datatypes"
)

// Comment is a status update posted on the home screen.
type Comment struct {
	ID          string                          `gorm:"primaryKey;size:36" json:"id"`
	AuthorName  string                          `gorm:"size:255;default:User" json:"author_name"`
	Content     string                          `gorm:"type:text;not null" json:"content"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`
	Likes       int                             `gorm:"not null;default:0" json:"likes"`
	Replies     datatypes.JSONSlice[Reply]      `json:"replies"`
	CreatedAt   time.Time                       `gorm:"index" json:"created_at"`
}

// Reply is one entry in a comment thread. Replies keep insertion order.
type Reply struct {
	ID          string       `json:"id"`
	AuthorName  string       `json:"author_name"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
