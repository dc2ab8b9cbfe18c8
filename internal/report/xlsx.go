package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the spreadsheet encoding.
const (
	SheetReport  = "Report"
	SheetScoring = "Scoring"
	SheetPB      = "CSMS-PB"
)

var reportWidths = []float64{38, 28, 10, 38, 8, 48, 12, 12, 12, 8, 20}

func encodeXLSX(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetReport); err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}

	if err := writeReportSheet(f, doc, header); err != nil {
		return nil, err
	}
	if err := writeScoringSheet(f, doc, header); err != nil {
		return nil, err
	}
	if err := writePBSheet(f, doc, header); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeReportSheet writes the title, the outcome note, the header on row 3
// and one row per document row from row 4.
func writeReportSheet(f *excelize.File, doc *Document, header int) error {
	s := SheetReport
	if err := f.SetCellValue(s, "A1", doc.Title); err != nil {
		return err
	}
	note := fmt.Sprintf("Generated %s. %s", doc.GeneratedAt.Format("2006-01-02 15:04 MST"), doc.Note())
	if err := f.SetCellValue(s, "A2", note); err != nil {
		return err
	}
	if err := setRow(f, s, 3, Header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 3)
	if err := f.SetCellStyle(s, "A3", last, header); err != nil {
		return err
	}
	for i, r := range doc.Rows {
		if err := setRow(f, s, i+4, r.Cells()); err != nil {
			return err
		}
	}
	for i, w := range reportWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(s, col, col, w); err != nil {
			return err
		}
	}
	return f.SetPanes(s, &excelize.Panes{Freeze: true, YSplit: 3, TopLeftCell: "A4", ActivePane: "bottomLeft"})
}

// writeScoringSheet lays out one element-rating block per project with
// A/B/C/D columns for scores 0/3/6/10.
func writeScoringSheet(f *excelize.File, doc *Document, header int) error {
	s := SheetScoring
	if _, err := f.NewSheet(s); err != nil {
		return err
	}
	cols := []string{"Element", "Item", "Title", "A (0)", "B (3)", "C (6)", "D (10)", "Factor", "Weighted"}
	row := 1
	for _, ps := range doc.Scoring {
		if err := f.SetCellValue(s, cell(1, row), ps.ProjectName+" ("+ps.ProjectID+")"); err != nil {
			return err
		}
		row++
		if err := setRow(f, s, row, cols); err != nil {
			return err
		}
		if err := f.SetCellStyle(s, cell(1, row), cell(len(cols), row), header); err != nil {
			return err
		}
		row++
		for _, el := range ps.Rating.Elements {
			for _, it := range el.Items {
				vals := []any{el.Short(), it.Code, it.Title, "", "", "", "", it.Factor, it.Weighted}
				switch it.Bucket {
				case "A":
					vals[3] = "X"
				case "B":
					vals[4] = "X"
				case "C":
					vals[5] = "X"
				case "D":
					vals[6] = "X"
				}
				if err := f.SetSheetRow(s, cell(1, row), &vals); err != nil {
					return err
				}
				row++
			}
			sub := []any{el.Short(), "", "Subtotal", "", "", "", "", "", el.Subtotal}
			if err := f.SetSheetRow(s, cell(1, row), &sub); err != nil {
				return err
			}
			row++
		}
		total := []any{"TOTAL", "", "", "", "", "", "", "", ps.Rating.Total}
		if err := f.SetSheetRow(s, cell(1, row), &total); err != nil {
			return err
		}
		row += 2
	}
	return f.SetColWidth(s, "C", "C", 60)
}

func writePBSheet(f *excelize.File, doc *Document, header int) error {
	s := SheetPB
	if _, err := f.NewSheet(s); err != nil {
		return err
	}
	cols := []string{"Project ID", "Period", "Score", "Average", "Band"}
	if err := setRow(f, s, 1, cols); err != nil {
		return err
	}
	if err := f.SetCellStyle(s, "A1", cell(len(cols), 1), header); err != nil {
		return err
	}
	row := 2
	for _, st := range doc.PB {
		for _, p := range st.Points {
			vals := []any{st.ProjectID, p.Period, p.Score, st.Average, string(st.Band)}
			if err := f.SetSheetRow(s, cell(1, row), &vals); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []string) error {
	vals := make([]any, len(cells))
	for i, c := range cells {
		vals[i] = c
	}
	return f.SetSheetRow(sheet, "A"+strconv.Itoa(row), &vals)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
