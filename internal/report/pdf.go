package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// pdfColumns picks the Header columns shown on paper and their widths in mm.
// Project ID is left out; the project name identifies the group.
var pdfColumns = []struct {
	index int
	width float64
}{
	{1, 35}, {2, 15}, {3, 52}, {4, 12}, {5, 68}, {6, 18}, {7, 18}, {8, 20}, {9, 14}, {10, 25},
}

const (
	pdfFont     = "Helvetica"
	pdfRowH     = 6.0
	pdfFontSize = 7.0
)

func encodePDF(doc *Document) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor("CSMS PHM", true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont(pdfFont, "B", 12)
		pdf.CellFormat(0, 8, tr(doc.Title), "", 1, "L", false, 0, "")
		if pdf.PageNo() == 1 {
			pdf.SetFont(pdfFont, "", 8)
			note := fmt.Sprintf("Generated %s. %s", doc.GeneratedAt.Format("2006-01-02 15:04 MST"), doc.Note())
			pdf.CellFormat(0, 5, tr(note), "", 1, "L", false, 0, "")
		}
		pdf.SetFont(pdfFont, "B", pdfFontSize)
		pdf.SetFillColor(31, 78, 120)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, pdfRowH, Header[c.index], "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont(pdfFont, "", pdfFontSize)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(pdfFont, "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	for i, r := range doc.Rows {
		cells := r.Cells()
		fill := i%2 == 1
		pdf.SetFillColor(242, 242, 242)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, pdfRowH, fit(pdf, tr(cells[c.index]), c.width-1), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(doc.Rows) == 0 {
		pdf.CellFormat(0, pdfRowH, "No data for this selection.", "1", 1, "C", false, 0, "")
	}
	if len(doc.Excluded) > 0 {
		pdf.Ln(2)
		pdf.SetFont(pdfFont, "I", pdfFontSize)
		pdf.MultiCell(0, 4, tr(fmt.Sprintf("%d record(s) excluded for malformed data.", len(doc.Excluded))), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit truncates s so it renders within width, marking the cut with "..".
// s is already translated to the single-byte core font encoding.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"..") > width {
		s = s[:len(s)-1]
	}
	return s + ".."
}
