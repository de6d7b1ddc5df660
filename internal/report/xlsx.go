package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	missionsSheet = "Missions"
	summarySheet  = "Summary"
	headerRow     = 4
)

// WriteXLSX writes the view as a workbook: a missions sheet with a totals row
// and a summary sheet with the per-material breakdown.
func WriteXLSX(w io.Writer, title string, v View, cols []Column, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", missionsSheet); err != nil {
		return err
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#2E7D32"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E8F5E9"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	f.SetCellValue(missionsSheet, "A1", title)
	f.SetCellStyle(missionsSheet, "A1", "A1", titleStyle)
	f.SetCellValue(missionsSheet, "A2", fmt.Sprintf("Generated: %s", now.Format("2006-01-02 15:04")))

	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(missionsSheet, cell, c.Header)
		f.SetCellStyle(missionsSheet, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(missionsSheet, col, col, 18)
	}
	for r := range v.Filtered {
		m := &v.Filtered[r]
		for i, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, headerRow+1+r)
			if c.Number != nil {
				f.SetCellValue(missionsSheet, cell, c.Number(m).InexactFloat64())
			} else {
				f.SetCellValue(missionsSheet, cell, c.Text(m))
			}
		}
	}

	totalRow := headerRow + 1 + len(v.Filtered)
	first, _ := excelize.CoordinatesToCellName(1, totalRow)
	last, _ := excelize.CoordinatesToCellName(len(cols), totalRow)
	f.SetCellValue(missionsSheet, first, fmt.Sprintf("Total: %d mission(s)", v.Stats.TotalCount))
	for i, c := range cols {
		if c.Header == colNet.Header {
			cell, _ := excelize.CoordinatesToCellName(i+1, totalRow)
			f.SetCellValue(missionsSheet, cell, v.Stats.TotalWeight.Round(2).InexactFloat64())
		}
	}
	f.SetCellStyle(missionsSheet, first, last, totalStyle)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	f.SetCellValue(summarySheet, "A1", "Material")
	f.SetCellValue(summarySheet, "B1", "Missions")
	f.SetCellValue(summarySheet, "C1", "Net weight (t)")
	f.SetCellStyle(summarySheet, "A1", "C1", headerStyle)
	for i, g := range v.Stats.ByMaterial {
		row := i + 2
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), g.Name)
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), g.Count)
		f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), g.Weight.Round(2).InexactFloat64())
	}
	row := len(v.Stats.ByMaterial) + 2
	f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), v.Stats.TotalCount)
	f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), v.Stats.TotalWeight.Round(2).InexactFloat64())
	f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), totalStyle)
	f.SetColWidth(summarySheet, "A", "C", 20)

	return f.Write(w)
}
