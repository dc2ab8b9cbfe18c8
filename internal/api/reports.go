package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/mailer"
	"github.com/phmhse/csmstrack/internal/report"
)

// handleReport builds a report and returns it as a download, uploads it to
// storage (mode=drive) or emails it (mode=email). With no project and no
// range the report covers everything. Email goes to the comma-separated
// recipients parameter, or the configured report recipients.
func (s *server) handleReport(c *gin.Context) {
	sel := report.Selection{
		ProjectID: c.Query("project_id"),
		From:      c.Query("from"),
		To:        c.Query("to"),
	}
	sel.All = sel.ProjectID == "" && sel.From == "" && sel.To == ""

	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	doc, err := report.Build(c.Request.Context(), s.DB, sel, s.Calendar, s.Now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	art, err := report.Encode(doc, format)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if doc.Outcome() == report.OutcomePartial {
		s.log.Warn("report excluded malformed records",
			zap.String("service", "report"), zap.Int("excluded", len(doc.Excluded)))
	}

	c.Header("X-Report-Outcome", string(doc.Outcome()))
	c.Header("X-Report-Note", doc.Note())

	switch mode := c.DefaultQuery("mode", "download"); mode {
	case "download":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Name))
		c.Data(http.StatusOK, art.ContentType, art.Data)

	case "drive":
		if s.Uploader == nil {
			s.respondError(c, apperr.Upstream("report: deliver", fmt.Errorf("storage is not configured")))
			return
		}
		ctx, cancel := s.upstreamCtx(c)
		defer cancel()
		ref, err := report.Deliver(ctx, art, s.Uploader)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"outcome":   doc.Outcome(),
			"note":      doc.Note(),
			"excluded":  doc.Excluded,
			"reference": ref,
		})

	case "email":
		if s.Mailer == nil {
			s.respondError(c, apperr.Upstream("report: mail", fmt.Errorf("email is not configured")))
			return
		}
		to := s.ReportRecipients
		if raw := c.Query("recipients"); raw != "" {
			to = mailer.SplitAddresses(raw)
		}
		ctx, cancel := s.upstreamCtx(c)
		defer cancel()
		id, err := report.Mail(ctx, doc, art, s.Mailer, to)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"outcome":    doc.Outcome(),
			"note":       doc.Note(),
			"excluded":   doc.Excluded,
			"message_id": id,
			"to":         strings.Join(to, ", "),
		})

	default:
		s.respondError(c, apperr.Validation("mode", "unsupported mode %q", mode))
	}
}
