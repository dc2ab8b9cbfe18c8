package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
	"gorm.io/gorm"
)

// LikeComment increments a comment's like counter and returns the new count.
func LikeComment(ctx context.Context, db *gorm.DB, id string) (int, error) {
	var likes int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).Where("id = ?", id).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1))
		if res.Error != nil {
			return apperr.Upstream("store: like comment", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("comment", id)
		}
		c, err := Get[models.Comment](ctx, tx, id)
		if err != nil {
			return err
		}
		likes = c.Likes
		return nil
	})
	return likes, err
}

// AddReply appends a reply to the end of a comment's thread. The id and
// timestamp are assigned here when empty.
func AddReply(ctx context.Context, db *gorm.DB, commentID string, r models.Reply, now time.Time) (*models.Reply, error) {
	if r.Content == "" {
		return nil, apperr.Validation("content", "is required")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.AuthorName == "" {
		r.AuthorName = "User"
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := Get[models.Comment](ctx, tx, commentID)
		if err != nil {
			return err
		}
		c.Replies = append(c.Replies, r)
		if err := tx.Model(c).Select("replies").Updates(c).Error; err != nil {
			return apperr.Upstream("store: add reply", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}
