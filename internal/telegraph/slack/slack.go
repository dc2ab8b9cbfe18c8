// Package slack implements the telegraph Notifier for Slack incoming webhooks.
package slack

import (
	"context"
	"fmt"

	"github.com/phmhse/csmstrack/internal/telegraph"
	slackapi "github.com/slack-go/slack"
)

// webhookPoster abstracts the Slack webhook call, enabling test mocks.
type webhookPoster interface {
	PostWebhook(ctx context.Context, url string, msg *slackapi.WebhookMessage) error
}

// realPoster calls the Slack API.
type realPoster struct{}

func (realPoster) PostWebhook(ctx context.Context, url string, msg *slackapi.WebhookMessage) error {
	return slackapi.PostWebhookContext(ctx, url, msg)
}

// Notifier posts digests to one Slack incoming webhook.
type Notifier struct {
	url    string
	poster webhookPoster
}

// NotifierOpts holds parameters for creating a Slack Notifier.
type NotifierOpts struct {
	WebhookURL string // https://hooks.slack.com/services/...
	// For testing: inject a mock poster instead of calling Slack.
	Poster webhookPoster
}

// New creates a Slack Notifier.
func New(opts NotifierOpts) (*Notifier, error) {
	if opts.WebhookURL == "" {
		return nil, fmt.Errorf("slack: webhook url is required")
	}
	n := &Notifier{url: opts.WebhookURL, poster: realPoster{}}
	if opts.Poster != nil {
		n.poster = opts.Poster
	}
	return n, nil
}

// Name implements telegraph.Notifier.
func (n *Notifier) Name() string { return "slack" }

// Notify implements telegraph.Notifier.
func (n *Notifier) Notify(ctx context.Context, d telegraph.Digest) error {
	msg := buildWebhookMessage(telegraph.FormatDigest(d))
	if err := n.poster.PostWebhook(ctx, n.url, msg); err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	return nil
}

// buildWebhookMessage translates an OutboundMessage into a Slack webhook payload.
func buildWebhookMessage(msg telegraph.OutboundMessage) *slackapi.WebhookMessage {
	wm := &slackapi.WebhookMessage{Text: msg.Text}
	for _, evt := range msg.Events {
		wm.Attachments = append(wm.Attachments, eventToAttachment(evt))
	}
	return wm
}

// eventToAttachment converts a FormattedEvent to a Slack Attachment.
func eventToAttachment(evt telegraph.FormattedEvent) slackapi.Attachment {
	att := slackapi.Attachment{
		Title:    evt.Title,
		Text:     evt.Body,
		Color:    evt.Color,
		Fallback: evt.Title,
	}

	for _, f := range evt.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}

	return att
}
