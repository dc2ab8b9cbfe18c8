package reminder

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/phmhse/csmstrack/internal/mailer"
)

// labelColors gives each milestone kind its banner color.
var labelColors = map[string]string{
	"MWT Plan":              "#3498db",
	"HSE Committee Meeting": "#9b59b6",
	"CSMS PB Audit":         "#27ae60",
	"HSE Plan":              "#e67e22",
	"SPR Review":            "#1abc9c",
	"HAZID/HAZOP":           "#e74c3c",
	rigDownLabel:            "#E50914",
}

const defaultColor = "#2196f3"

var bodyTmpl = template.Must(template.New("reminder").Parse(`<html>
<body style="font-family: Arial, sans-serif; padding: 20px;">
  <div style="background: {{.Color}}; color: white; padding: 20px; border-radius: 8px;">
    <h2 style="margin: 0;">{{.Heading}}</h2>
  </div>
  <div style="padding: 20px; background: #f5f5f5; border-radius: 8px; margin-top: 10px;">
    <p>Dear <strong>{{.Greeting}}</strong>,</p>
    <p>{{.Intro}}</p>
    <table style="width: 100%; border-collapse: collapse;">
      {{range .Rows}}<tr style="background: #fff;">
        <td style="padding: 10px; border: 1px solid #ddd;"><strong>{{.Name}}</strong></td>
        <td style="padding: 10px; border: 1px solid #ddd;">{{.Value}}</td>
      </tr>
      {{end}}
    </table>
    <p style="margin-top: 20px;">{{.Closing}}</p>
    <p>Best regards,<br><strong>CSMS Project Management System</strong><br>PHM</p>
  </div>
</body>
</html>`))

type row struct{ Name, Value string }

type body struct {
	Color    string
	Heading  string
	Greeting string
	Intro    string
	Rows     []row
	Closing  string
}

// Compose builds the email for a candidate.
func Compose(c Candidate) (mailer.Message, error) {
	b := body{
		Color:    labelColors[c.Label],
		Heading:  c.Label + " Reminder",
		Greeting: orDash(c.PICName, "Team"),
		Intro:    fmt.Sprintf("This is a reminder: %s.", c.Reason),
		Closing:  "Please mark this date in your calendar and prepare accordingly.",
	}
	if b.Color == "" {
		b.Color = defaultColor
	}
	var subject string
	switch c.RecordType {
	case RecordProject:
		b.Heading = "[REMINDER] Project Completion Alert"
		b.Closing = "Please prioritize completing the remaining tasks before rig down."
		subject = fmt.Sprintf("[REMINDER] Project: %s - Rig Down %s", orDash(c.ProjectName, c.RecordID), dueIn(c.DaysUntil))
		b.Rows = []row{
			{"Project", orDash(c.ProjectName, "-")},
			{"Well", orDash(c.WellName, "-")},
			{"Rig Down Date", c.Date()},
		}
		if c.Completion != nil {
			b.Rows = append(b.Rows,
				row{"Completion", fmt.Sprintf("%d/%d tasks (%.0f%%)", c.Completion.Completed, c.Completion.Total, c.Completion.Percent)},
				row{"Remaining Tasks", fmt.Sprintf("%d tasks to complete", c.Completion.Total-c.Completion.Completed)},
			)
		}
	case RecordTask:
		subject = fmt.Sprintf("Task Reminder: %s - %s", c.Label, orDash(c.ProjectName, "Unknown Project"))
		b.Rows = []row{
			{"Project", orDash(c.ProjectName, "-")},
			{"Task", c.Label},
			{"Due Date", c.Date()},
		}
	default:
		subject = fmt.Sprintf("Schedule Reminder: %s - %s", c.Label, orDash(c.ProjectName, "Unknown Project"))
		b.Rows = []row{
			{"Project", orDash(c.ProjectName, "-")},
			{"Well", orDash(c.WellName, "-")},
			{"Schedule Type", c.Label},
			{"Date", c.Date()},
		}
	}

	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, b); err != nil {
		return mailer.Message{}, fmt.Errorf("reminder: render body: %w", err)
	}
	return mailer.Message{
		To:      c.Recipients,
		CC:      c.CC,
		Subject: subject,
		HTML:    buf.String(),
	}, nil
}

func orDash(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
