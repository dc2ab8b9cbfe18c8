// Package discord implements the telegraph Notifier for Discord webhooks.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/phmhse/csmstrack/internal/telegraph"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts digests through a Discord webhook.
type Notifier struct {
	sess      session
	webhookID string
	token     string
}

// NotifierOpts holds parameters for creating a Discord Notifier.
type NotifierOpts struct {
	WebhookID    string
	WebhookToken string
	// For testing: inject a mock session instead of real Discord API.
	Session session
}

// New creates a Discord Notifier. Webhook execution needs no bot token.
func New(opts NotifierOpts) (*Notifier, error) {
	if opts.WebhookID == "" || opts.WebhookToken == "" {
		return nil, fmt.Errorf("discord: webhook id and token are required")
	}
	n := &Notifier{webhookID: opts.WebhookID, token: opts.WebhookToken, sess: opts.Session}
	if n.sess == nil {
		s, err := discordgo.New("")
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		n.sess = s
	}
	return n, nil
}

// Name implements telegraph.Notifier.
func (n *Notifier) Name() string { return "discord" }

// Notify implements telegraph.Notifier.
func (n *Notifier) Notify(ctx context.Context, d telegraph.Digest) error {
	params := buildWebhookParams(telegraph.FormatDigest(d))
	if _, err := n.sess.WebhookExecute(n.webhookID, n.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: execute webhook: %w", err)
	}
	return nil
}

// buildWebhookParams translates an OutboundMessage into a Discord webhook payload.
func buildWebhookParams(msg telegraph.OutboundMessage) *discordgo.WebhookParams {
	params := &discordgo.WebhookParams{Content: msg.Text}
	for _, evt := range msg.Events {
		params.Embeds = append(params.Embeds, eventToEmbed(evt))
	}
	return params
}

// eventToEmbed converts a FormattedEvent to a Discord Embed.
func eventToEmbed(evt telegraph.FormattedEvent) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
	}

	if evt.Color != "" {
		embed.Color = parseHexColor(evt.Color)
	}

	for _, f := range evt.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}

	return embed
}

// parseHexColor converts a hex color string (e.g. "#36a64f") to an int.
func parseHexColor(hex string) int {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	var color int
	for _, c := range hex {
		color <<= 4
		switch {
		case c >= '0' && c <= '9':
			color |= int(c - '0')
		case c >= 'a' && c <= 'f':
			color |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			color |= int(c-'A') + 10
		}
	}
	return color
}
