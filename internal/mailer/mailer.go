// Package mailer is the transactional email collaborator.
package mailer

import (
	"context"
	"strings"
)

// Attachment is a file sent with a message.
type Attachment struct {
	Name    string
	Content []byte
}

// Message is one outgoing email.
type Message struct {
	To          []string
	CC          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender delivers a message and returns the provider's delivery id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SplitAddresses splits a comma-separated address list, dropping blanks.
func SplitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
