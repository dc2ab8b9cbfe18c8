// Package store is the entity store adapter: uniform get/list/put/delete over
// the CSMS tables, plus the few multi-row operations that must run in one
// transaction. Driver and connection failures surface as
// apperr.ErrUpstreamUnavailable; missing rows as apperr.ErrNotFound.
package store

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/phmhse/csmstrack/internal/apperr"
	"gorm.io/gorm"
)

// Filter narrows a List call. Where keys are column names.
type Filter struct {
	Where map[string]any
	Order string // defaults to "id"
	Limit int
}

// Get loads one record by primary key.
func Get[T any](ctx context.Context, db *gorm.DB, id string) (*T, error) {
	var rec T
	err := db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		return nil, wrap("get", kindOf[T](), id, err)
	}
	return &rec, nil
}

// List returns every record matching f.
func List[T any](ctx context.Context, db *gorm.DB, f Filter) ([]T, error) {
	q := db.WithContext(ctx)
	if len(f.Where) > 0 {
		q = q.Where(f.Where)
	}
	order := f.Order
	if order == "" {
		order = "id"
	}
	q = q.Order(order)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Upstream("store: list "+kindOf[T](), err)
	}
	return out, nil
}

// Put writes the whole record, inserting it when its id is new. The record
// is validated first and nothing is written when validation fails.
func Put[T any](ctx context.Context, db *gorm.DB, rec *T) (*T, error) {
	if err := Validate(rec); err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Save(rec).Error; err != nil {
		return nil, apperr.Upstream("store: put "+kindOf[T](), err)
	}
	return rec, nil
}

// Delete removes one record by primary key.
func Delete[T any](ctx context.Context, db *gorm.DB, id string) error {
	var rec T
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&rec)
	if res.Error != nil {
		return apperr.Upstream("store: delete "+kindOf[T](), res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(kindOf[T](), id)
	}
	return nil
}

// wrap maps gorm errors onto the apperr kinds.
func wrap(op, kind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(kind, id)
	}
	return apperr.Upstream("store: "+op+" "+kind, err)
}

// kindOf names T for error messages, e.g. "csmspb" or "project".
func kindOf[T any]() string {
	return strings.ToLower(reflect.TypeOf((*T)(nil)).Elem().Name())
}
