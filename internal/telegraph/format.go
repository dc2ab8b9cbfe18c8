package telegraph

import (
	"fmt"
	"strings"
	"time"
)

// Color constants for event severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// maxItems caps how many reminder lines one digest lists.
const maxItems = 20

// Digest summarises one reminder run for chat.
type Digest struct {
	RunAt   time.Time
	DryRun  bool
	Sent    int
	Skipped int // already notified in an earlier run
	Failed  int
	Invalid int // records excluded for malformed data
	Items   []DigestItem
}

// DigestItem is one candidate reminder and what happened to it.
type DigestItem struct {
	Record  string // e.g. "schedule 7f3c…"
	Reason  string // e.g. "HAZID/HAZOP due in 2 days"
	To      string
	Outcome string // sent, skipped, failed, dry-run
}

// Empty reports whether the run found nothing worth posting.
func (d Digest) Empty() bool {
	return len(d.Items) == 0 && d.Failed == 0 && d.Invalid == 0
}

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "info":
		return ColorInfo
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// digestSeverity escalates with failures first, then skipped records.
func digestSeverity(d Digest) string {
	switch {
	case d.Failed > 0:
		return "error"
	case d.Invalid > 0:
		return "warning"
	case d.Sent > 0:
		return "success"
	}
	return "info"
}

// FormatDigest renders d as a platform-neutral message.
func FormatDigest(d Digest) OutboundMessage {
	severity := digestSeverity(d)

	title := "CSMS reminder run"
	if d.DryRun {
		title += " (dry run)"
	}

	var lines []string
	for i, it := range d.Items {
		if i == maxItems {
			lines = append(lines, fmt.Sprintf("… and %d more", len(d.Items)-maxItems))
			break
		}
		line := fmt.Sprintf("• [%s] %s: %s", it.Outcome, it.Record, it.Reason)
		if it.To != "" {
			line += " → " + it.To
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, "No reminders due.")
	}

	fields := []Field{
		{Name: "Sent", Value: fmt.Sprintf("%d", d.Sent), Short: true},
		{Name: "Already notified", Value: fmt.Sprintf("%d", d.Skipped), Short: true},
		{Name: "Failed", Value: fmt.Sprintf("%d", d.Failed), Short: true},
	}
	if d.Invalid > 0 {
		fields = append(fields, Field{Name: "Invalid records", Value: fmt.Sprintf("%d", d.Invalid), Short: true})
	}

	evt := FormattedEvent{
		Title:    title,
		Body:     strings.Join(lines, "\n"),
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
	}
	text := fmt.Sprintf("%s at %s: %d sent, %d failed", title, d.RunAt.Format("2006-01-02 15:04 MST"), d.Sent, d.Failed)
	return OutboundMessage{Text: text, Events: []FormattedEvent{evt}}
}
