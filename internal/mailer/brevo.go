package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	brevo "github.com/getbrevo/brevo-go/lib"

	"github.com/phmhse/csmstrack/internal/apperr"
)

// DefaultBrevoURL is the production Brevo API base.
const DefaultBrevoURL = "https://api.brevo.com/v3"

// Brevo sends transactional email through the Brevo SDK.
type Brevo struct {
	BaseURL     string
	SenderEmail string
	SenderName  string
	Client      *http.Client

	api *brevo.APIClient
}

// BrevoOpts configures NewBrevo.
type BrevoOpts struct {
	BaseURL     string
	APIKey      string
	SenderEmail string
	SenderName  string
	Timeout     time.Duration
}

// NewBrevo returns a Brevo sender. A zero Timeout means 30 seconds.
func NewBrevo(opts BrevoOpts) (*Brevo, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("mailer: brevo api key is required")
	}
	if opts.SenderEmail == "" {
		return nil, fmt.Errorf("mailer: brevo sender email is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBrevoURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	b := &Brevo{
		BaseURL:     strings.TrimRight(opts.BaseURL, "/"),
		SenderEmail: opts.SenderEmail,
		SenderName:  opts.SenderName,
		Client:      &http.Client{Timeout: opts.Timeout},
	}
	cfg := brevo.NewConfiguration()
	cfg.BasePath = b.BaseURL
	cfg.HTTPClient = b.Client
	cfg.AddDefaultHeader("api-key", opts.APIKey)
	b.api = brevo.NewAPIClient(cfg)
	return b, nil
}

// Send submits msg as a transactional email. Any transport error or non-2xx
// response is an ErrUpstreamUnavailable; the call is not retried.
func (b *Brevo) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", apperr.Validation("to", "at least one recipient is required")
	}
	email := brevo.SendSmtpEmail{
		Sender:      &brevo.SendSmtpEmailSender{Email: b.SenderEmail, Name: b.SenderName},
		Subject:     msg.Subject,
		HtmlContent: msg.HTML,
	}
	for _, a := range msg.To {
		email.To = append(email.To, brevo.SendSmtpEmailTo{Email: a})
	}
	for _, a := range msg.CC {
		email.Cc = append(email.Cc, brevo.SendSmtpEmailCc{Email: a})
	}
	for _, a := range msg.Attachments {
		email.Attachment = append(email.Attachment, brevo.SendSmtpEmailAttachment{
			Name:    a.Name,
			Content: base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	out, resp, err := b.api.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("status %d: %w", resp.StatusCode, err)
		}
		return "", apperr.Upstream("mailer: brevo send", err)
	}
	return out.MessageId, nil
}
