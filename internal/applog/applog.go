// Package applog builds the zap logger used across CSMS Track.
package applog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"github.com/phmhse/csmstrack/internal/config"
	"github.com/phmhse/csmstrack/internal/models"
)

// DefaultService names entries that carry no "service" field.
const DefaultService = "csms"

// New builds a production or development logger. With cfg.Persist and a
// non-nil db, INFO and above are also appended to app_logs.
func New(cfg config.LoggingConfig, db *gorm.DB) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("applog: level %q: %w", cfg.Level, err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	var opts []zap.Option
	if cfg.Persist && db != nil {
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, NewDBCore(db, maxLevel(level, zapcore.InfoLevel)))
		}))
	}
	logger, err := zc.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("applog: build: %w", err)
	}
	return logger, nil
}

func maxLevel(a, b zapcore.Level) zapcore.Level {
	if a > b {
		return a
	}
	return b
}

// DBCore is a zapcore.Core that appends entries to the app_logs table.
// A failed insert is reported to zap's error output and never blocks the
// caller's own logging.
type DBCore struct {
	zapcore.LevelEnabler
	db     *gorm.DB
	fields []zapcore.Field
}

// NewDBCore returns a core writing entries at or above min to db.
func NewDBCore(db *gorm.DB, min zapcore.Level) *DBCore {
	return &DBCore{LevelEnabler: min, db: db}
}

// With adds structured context to the core.
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field{}, c.fields...), fields...)
	return &clone
}

// Check adds c to ce when the entry's level is enabled.
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write inserts one row. The "service" field, or else the logger name,
// fills the service column; remaining fields become the JSON detail.
func (c *DBCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	service := ent.LoggerName
	if s, ok := enc.Fields["service"].(string); ok && s != "" {
		service = s
		delete(enc.Fields, "service")
	}
	if service == "" {
		service = DefaultService
	}

	var detail string
	if len(enc.Fields) > 0 {
		b, err := json.Marshal(enc.Fields)
		if err != nil {
			return fmt.Errorf("applog: encode detail: %w", err)
		}
		detail = string(b)
	}

	created := ent.Time
	if created.IsZero() {
		created = time.Now()
	}
	row := models.AppLog{
		Level:     levelName(ent.Level),
		Service:   service,
		Message:   ent.Message,
		Detail:    detail,
		CreatedAt: created,
	}
	if err := c.db.Create(&row).Error; err != nil {
		return fmt.Errorf("applog: insert: %w", err)
	}
	return nil
}

// Sync is a no-op; every Write is already committed.
func (c *DBCore) Sync() error { return nil }

func levelName(l zapcore.Level) string {
	switch {
	case l >= zapcore.ErrorLevel:
		return models.LogError
	case l == zapcore.WarnLevel:
		return models.LogWarn
	}
	return models.LogInfo
}

// Recent returns the newest app_logs rows, optionally filtered by level.
func Recent(db *gorm.DB, level string, limit int) ([]models.AppLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := db.Order("created_at desc").Order("id desc").Limit(limit)
	if level != "" {
		q = q.Where("level = ?", strings.ToUpper(level))
	}
	var rows []models.AppLog
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("applog: recent: %w", err)
	}
	return rows, nil
}
