package report

import (
	"fmt"
	"strings"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/metrics"
)

// Format is an output encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
)

var contentTypes = map[Format]string{
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatPDF:  "application/pdf",
	FormatCSV:  "text/csv",
}

// ParseFormat accepts xlsx, excel, pdf and csv. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", apperr.Validation("format", "unsupported format %q", s)
}

// Artifact is an encoded report: an opaque buffer plus its content type.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Encode renders doc in format f entirely in memory.
func Encode(doc *Document, f Format) (Artifact, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatXLSX:
		data, err = encodeXLSX(doc)
	case FormatPDF:
		data, err = encodePDF(doc)
	case FormatCSV:
		data, err = encodeCSV(doc)
	default:
		return Artifact{}, apperr.Validation("format", "unsupported format %q", f)
	}
	if err != nil {
		metrics.RecordReportBuild(string(f), "error")
		return Artifact{}, fmt.Errorf("report: encode %s: %w", f, err)
	}
	metrics.RecordReportBuild(string(f), string(doc.Outcome()))
	return Artifact{
		Name:        fileName(doc, f),
		ContentType: contentTypes[f],
		Data:        data,
	}, nil
}

// fileName builds a name hint such as "CSMS_Report_Rig_A_20240701.xlsx".
func fileName(doc *Document, f Format) string {
	base := "CSMS_Report"
	if doc.Selection.ProjectID != "" && len(doc.Rows) > 0 {
		base += "_" + sanitize(doc.Rows[0].ProjectName)
	}
	return fmt.Sprintf("%s_%s.%s", base, doc.GeneratedAt.Format("20060102"), f)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
