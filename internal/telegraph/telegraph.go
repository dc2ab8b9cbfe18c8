// Package telegraph posts reminder-run digests to chat platforms (Slack,
// Discord). Each platform lives in its own subpackage and implements Notifier.
package telegraph

import (
	"context"
	"errors"
	"fmt"
)

// Notifier delivers a digest to one chat destination.
type Notifier interface {
	// Name identifies the platform in logs, e.g. "slack".
	Name() string

	// Notify posts the digest. Implementations do not retry.
	Notify(ctx context.Context, d Digest) error
}

// OutboundMessage is a platform-neutral chat message.
type OutboundMessage struct {
	Text   string           // fallback / top-level text
	Events []FormattedEvent // structured attachments
}

// FormattedEvent is one attachment block of a message.
type FormattedEvent struct {
	Title    string  // headline, e.g. "HAZID/HAZOP due in 2 days"
	Body     string  // detail text
	Severity string  // "info", "warning", "error", "success"
	Color    string  // sidebar color hint (e.g. "#36a64f" for success)
	Fields   []Field // key-value metadata pairs
}

// Field is a key-value pair displayed in an event attachment.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}

// Broadcast sends d to every notifier and joins their errors. One failing
// platform does not stop the others.
func Broadcast(ctx context.Context, notifiers []Notifier, d Digest) error {
	var errs []error
	for _, n := range notifiers {
		if err := n.Notify(ctx, d); err != nil {
			errs = append(errs, fmt.Errorf("telegraph: %s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
