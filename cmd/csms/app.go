package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phmhse/csmstrack/internal/applog"
	"github.com/phmhse/csmstrack/internal/config"
	"github.com/phmhse/csmstrack/internal/db"
	"github.com/phmhse/csmstrack/internal/mailer"
	"github.com/phmhse/csmstrack/internal/reminder"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/phmhse/csmstrack/internal/storage"
	"github.com/phmhse/csmstrack/internal/telegraph"
	"github.com/phmhse/csmstrack/internal/telegraph/discord"
	"github.com/phmhse/csmstrack/internal/telegraph/slack"
)

// app holds the collaborators every command wires from one config file.
type app struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.Logger
	cal status.Calendar
}

// loadApp reads the config, connects the store and builds the logger.
func loadApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	log, err := applog.New(cfg.Logging, gormDB)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg: cfg,
		db:  gormDB,
		log: log,
		cal: status.NewCalendar(cfg.Location()),
	}, nil
}

func (a *app) close() {
	a.log.Sync()
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// sender returns the Brevo sender, or nil when no API key is configured.
func (a *app) sender() (mailer.Sender, error) {
	e := a.cfg.Email
	if e.APIKey == "" {
		return nil, nil
	}
	b, err := mailer.NewBrevo(mailer.BrevoOpts{
		BaseURL:     e.BaseURL,
		APIKey:      e.APIKey,
		SenderEmail: e.SenderEmail,
		SenderName:  e.SenderName,
		Timeout:     a.cfg.Upstream.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// uploader returns the Drive uploader, or nil when Drive is not configured.
func (a *app) uploader(ctx context.Context) (storage.Uploader, error) {
	d := a.cfg.Storage.Drive
	if !d.Enabled() {
		return nil, nil
	}
	up, err := storage.NewDrive(ctx, storage.DriveOpts{
		ClientID:     d.ClientID,
		ClientSecret: d.ClientSecret,
		RefreshToken: d.RefreshToken,
		FolderID:     d.FolderID,
	})
	if err != nil {
		return nil, err
	}
	return up, nil
}

// notifiers builds a chat notifier for every configured webhook.
func (a *app) notifiers() ([]telegraph.Notifier, error) {
	var out []telegraph.Notifier
	c := a.cfg.Chat
	if c.SlackWebhookURL != "" {
		n, err := slack.New(slack.NotifierOpts{WebhookURL: c.SlackWebhookURL})
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if c.DiscordWebhookID != "" {
		n, err := discord.New(discord.NotifierOpts{WebhookID: c.DiscordWebhookID, WebhookToken: c.DiscordWebhookToken})
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (a *app) marks() reminder.MarkStore {
	r := a.cfg.Reminders
	if r.MarkerStore == "redis" {
		return reminder.NewRedisMarks(reminder.RedisMarksOpts{Addr: r.RedisAddr, Password: r.RedisPassword})
	}
	return reminder.DBMarks{DB: a.db}
}

// dispatcher wires the reminder dispatcher. sender may be nil only for
// previews and dry runs.
func (a *app) dispatcher(sender mailer.Sender) (*reminder.Dispatcher, error) {
	r := a.cfg.Reminders
	period, err := reminder.ParsePeriod(r.Period)
	if err != nil {
		return nil, err
	}
	notifiers, err := a.notifiers()
	if err != nil {
		return nil, err
	}
	return &reminder.Dispatcher{
		DB:        a.db,
		Sender:    sender,
		Marks:     a.marks(),
		Notifiers: notifiers,
		Logger:    a.log.Named("reminder"),
		Calendar:  a.cal,
		Options: reminder.Options{
			LookaheadDays:       r.LookaheadDays,
			RigDownDays:         r.RigDownDays,
			CompletionThreshold: r.CompletionThreshold,
			FallbackRecipient:   r.FallbackRecipient,
		},
		Period:  period,
		Timeout: a.cfg.Upstream.Timeout,
	}, nil
}
