package store

import (
	"context"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttachToTask appends an uploaded attachment to a task.
func AttachToTask(ctx context.Context, db *gorm.DB, taskID string, a models.Attachment) (*models.Task, error) {
	var out models.Task
	err := appendAttachment(ctx, db, &out, taskID, a, func() *datatypes.JSONSlice[models.Attachment] {
		return &out.Attachments
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AttachToPB appends an uploaded attachment to a CSMS-PB record.
func AttachToPB(ctx context.Context, db *gorm.DB, pbID string, a models.Attachment) (*models.CsmsPB, error) {
	var out models.CsmsPB
	err := appendAttachment(ctx, db, &out, pbID, a, func() *datatypes.JSONSlice[models.Attachment] {
		return &out.Attachments
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// appendAttachment loads rec by id, appends a to the list returned by field
// and writes only the attachments column.
func appendAttachment(ctx context.Context, db *gorm.DB, rec any, id string, a models.Attachment,
	field func() *datatypes.JSONSlice[models.Attachment]) error {
	if a.Filename == "" || a.Reference == "" {
		return apperr.Validation("attachment", "filename and reference are required")
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(rec).Error; err != nil {
			return wrap("get", kindName(rec), id, err)
		}
		list := field()
		*list = append(*list, a)
		if err := tx.Model(rec).Select("attachments").Updates(rec).Error; err != nil {
			return apperr.Upstream("store: attach", err)
		}
		return nil
	})
}

func kindName(rec any) string {
	switch rec.(type) {
	case *models.Task:
		return "task"
	case *models.CsmsPB:
		return "csmspb"
	}
	return "record"
}
