package report

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"gorm.io/gorm"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/mailer"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/phmhse/csmstrack/internal/storage"
	"github.com/phmhse/csmstrack/internal/store"
)

// Build loads the records a selection needs and assembles them.
func Build(ctx context.Context, db *gorm.DB, sel Selection, cal status.Calendar, now time.Time) (*Document, error) {
	snap, err := store.LoadSnapshot(ctx, db, sel.Scope())
	if err != nil {
		return nil, fmt.Errorf("report: build: %w", err)
	}
	return Assemble(snap, sel, cal, now)
}

// Deliver hands the artifact to object storage.
func Deliver(ctx context.Context, art Artifact, up storage.Uploader) (storage.Reference, error) {
	if err := ctx.Err(); err != nil {
		return storage.Reference{}, err
	}
	ref, err := up.Upload(ctx, art.Data, art.ContentType, art.Name)
	if err != nil {
		return storage.Reference{}, fmt.Errorf("report: deliver %s: %w", art.Name, wrapUpstream(err))
	}
	return ref, nil
}

// Mail sends the artifact as an email attachment and returns the delivery id.
func Mail(ctx context.Context, doc *Document, art Artifact, sender mailer.Sender, to []string) (string, error) {
	if len(to) == 0 {
		return "", apperr.Validation("to", "no recipients")
	}
	body := fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
<h2>%s</h2>
<p>%s</p>
<p>The report is attached as <strong>%s</strong>.</p>
<p>Best regards,<br><strong>CSMS Project Management System</strong></p>
</body></html>`, html.EscapeString(doc.Title), html.EscapeString(doc.Note()), html.EscapeString(art.Name))

	id, err := sender.Send(ctx, mailer.Message{
		To:          to,
		Subject:     doc.Title,
		HTML:        body,
		Attachments: []mailer.Attachment{{Name: art.Name, Content: art.Data}},
	})
	if err != nil {
		return "", fmt.Errorf("report: mail %s: %w", art.Name, wrapUpstream(err))
	}
	return id, nil
}

func wrapUpstream(err error) error {
	if errors.Is(err, apperr.ErrUpstreamUnavailable) || errors.Is(err, apperr.ErrValidation) {
		return err
	}
	return apperr.Upstream("collaborator", err)
}
