package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/cv-auditor/internal/models"
	"github.com/fmuoria/cv-auditor/internal/scoring"
)

const (
	summarySheet     = "Summary"
	submissionsSheet = "Submissions"
	breakdownSheet   = "Category Breakdown"

	headerColor    = "4472C4"
	excellentColor = "C6EFCE"
	goodColor      = "FFEB9C"
	fairColor      = "FFC7CE"
	poorColor      = "FF9999"
)

// Score bands used for colour-coding and the summary distribution
const (
	BandExcellent = "Excellent"
	BandGood      = "Good"
	BandFair      = "Fair"
	BandPoor      = "Poor"
)

// Band classifies a score: Excellent >= 90, Good >= 70, Fair >= 50, otherwise Poor
func Band(score int) string {
	switch {
	case score >= 90:
		return BandExcellent
	case score >= 70:
		return BandGood
	case score >= 50:
		return BandFair
	default:
		return BandPoor
	}
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// ExportToExcel writes the audit report to outputPath, adding .xlsx when missing.
// delimiter is the separator used in the records' Audit_Details.
func ExportToExcel(records []models.Record, delimiter, outputPath string) error {
	f, err := buildWorkbook(records, delimiter)
	if err != nil {
		return err
	}
	defer f.Close()

	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	// Clean the path for cross-platform compatibility (Windows paths)
	outputPath = filepath.Clean(outputPath)

	if err := f.SaveAs(outputPath); err != nil {
		// If direct save fails, try buffer write fallback
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}

		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return nil
}

// Write streams the audit report workbook to w
func Write(w io.Writer, records []models.Record, delimiter string) error {
	f, err := buildWorkbook(records, delimiter)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel workbook: %w", err)
	}
	return nil
}

func buildWorkbook(records []models.Record, delimiter string) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(submissionsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(breakdownSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	parsed := make([][]models.Verdict, len(records))
	for i, r := range records {
		parsed[i] = scoring.ParseSummary(r.AuditDetails, delimiter)
	}
	labels := categoryLabels(parsed)

	if err := createSummarySheet(f, records, parsed, labels); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := createSubmissionsSheet(f, records); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create submissions sheet: %w", err)
	}

	if err := createBreakdownSheet(f, records, parsed, labels); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create category breakdown sheet: %w", err)
	}

	return f, nil
}

// categoryLabels lists category labels in first-seen order
func categoryLabels(parsed [][]models.Verdict) []string {
	seen := make(map[string]bool)
	labels := make([]string, 0)
	for _, verdicts := range parsed {
		for _, v := range verdicts {
			if !seen[v.Label] {
				seen[v.Label] = true
				labels = append(labels, v.Label)
			}
		}
	}
	return labels
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func column(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}

func headerStyle(f *excelize.File, size float64, horizontal string) (int, error) {
	style := &excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: horizontal, Vertical: "center"},
	}
	if size > 0 {
		style.Font.Size = size
	} else {
		style.Border = thinBorder
	}
	return f.NewStyle(style)
}

func fillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Border: thinBorder,
	})
}

// bandStyles returns a fill style per score band
func bandStyles(f *excelize.File) (map[string]int, error) {
	colors := map[string]string{
		BandExcellent: excellentColor,
		BandGood:      goodColor,
		BandFair:      fairColor,
		BandPoor:      poorColor,
	}

	styles := make(map[string]int, len(colors))
	for band, color := range colors {
		style, err := fillStyle(f, color)
		if err != nil {
			return nil, err
		}
		styles[band] = style
	}
	return styles, nil
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// createSummarySheet writes totals, the score distribution and per-category found rates
func createSummarySheet(f *excelize.File, records []models.Record, parsed [][]models.Verdict, labels []string) error {
	sheet := summarySheet
	f.SetColWidth(sheet, "A", "A", 30)
	f.SetColWidth(sheet, "B", "B", 25)

	title, err := headerStyle(f, 14, "left")
	if err != nil {
		return err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	row := 1
	section := func(text string) {
		f.SetCellValue(sheet, cell(1, row), text)
		f.SetCellStyle(sheet, cell(1, row), cell(2, row), title)
		f.MergeCell(sheet, cell(1, row), cell(2, row))
		row++
	}
	pair := func(label string, value interface{}) {
		f.SetCellValue(sheet, cell(1, row), label)
		f.SetCellStyle(sheet, cell(1, row), cell(1, row), labelStyle)
		f.SetCellValue(sheet, cell(2, row), value)
		row++
	}

	section("CV Audit Report")
	row++

	students := make(map[string]bool)
	for _, r := range records {
		students[r.ID] = true
	}

	pair("Generated:", time.Now().Format("2006-01-02 15:04:05"))
	pair("Total Submissions:", len(records))
	pair("Distinct Students:", len(students))
	row++

	if len(records) == 0 {
		return nil
	}

	section("Statistics:")

	counts := make(map[string]int)
	total, highest, lowest := 0, records[0].Score, records[0].Score
	for _, r := range records {
		counts[Band(r.Score)]++
		total += r.Score
		highest = max(highest, r.Score)
		lowest = min(lowest, r.Score)
	}

	pair("Excellent (90-100):", counts[BandExcellent])
	pair("Good (70-89):", counts[BandGood])
	pair("Fair (50-69):", counts[BandFair])
	pair("Poor (<50):", counts[BandPoor])
	row++

	pair("Average Score:", fmt.Sprintf("%.2f", float64(total)/float64(len(records))))
	pair("Highest Score:", highest)
	pair("Lowest Score:", lowest)
	row++

	if len(labels) == 0 {
		return nil
	}

	section("Category Found Rate:")
	for _, label := range labels {
		found := 0
		for _, verdicts := range parsed {
			for _, v := range verdicts {
				if v.Label == label && v.Found {
					found++
				}
			}
		}
		pair(label, fmt.Sprintf("%d / %d (%.0f%%)", found, len(records), 100*float64(found)/float64(len(records))))
	}

	return nil
}

// createSubmissionsSheet lists one row per record, colour-coded by score band
func createSubmissionsSheet(f *excelize.File, records []models.Record) error {
	sheet := submissionsSheet
	widths := []float64{25, 14, 10, 12, 18, 90}
	for i, w := range widths {
		f.SetColWidth(sheet, column(i+1), column(i+1), w)
	}

	header, err := headerStyle(f, 0, "center")
	if err != nil {
		return err
	}

	styles, err := bandStyles(f)
	if err != nil {
		return err
	}

	headers := []string{"Name", "ID", "Score", "Band", "Timestamp", "Audit Details"}
	for col, h := range headers {
		f.SetCellValue(sheet, cell(col+1, 1), h)
		f.SetCellStyle(sheet, cell(col+1, 1), cell(col+1, 1), header)
	}

	for i, r := range records {
		row := i + 2
		band := Band(r.Score)

		f.SetCellValue(sheet, cell(1, row), r.Name)
		f.SetCellValue(sheet, cell(2, row), r.ID)
		f.SetCellValue(sheet, cell(3, row), r.Score)
		f.SetCellValue(sheet, cell(4, row), band)
		f.SetCellValue(sheet, cell(5, row), r.Timestamp.Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, cell(6, row), r.AuditDetails)
		f.SetCellStyle(sheet, cell(1, row), cell(len(headers), row), styles[band])
	}

	if len(records) > 0 {
		ref := fmt.Sprintf("A1:%s", cell(len(headers), len(records)+1))
		if err := f.AutoFilter(sheet, ref, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}

	return freezeHeader(f, sheet)
}

// createBreakdownSheet writes one column per category with the found/missing mark
func createBreakdownSheet(f *excelize.File, records []models.Record, parsed [][]models.Verdict, labels []string) error {
	sheet := breakdownSheet
	f.SetColWidth(sheet, "A", "A", 25)
	f.SetColWidth(sheet, "B", "C", 12)
	if len(labels) > 0 {
		f.SetColWidth(sheet, column(4), column(3+len(labels)), 18)
	}

	header, err := headerStyle(f, 0, "center")
	if err != nil {
		return err
	}
	f.SetRowHeight(sheet, 1, 30)

	foundStyle, err := fillStyle(f, excellentColor)
	if err != nil {
		return err
	}
	missingStyle, err := fillStyle(f, fairColor)
	if err != nil {
		return err
	}

	headers := append([]string{"Name", "ID", "Score"}, labels...)
	for col, h := range headers {
		f.SetCellValue(sheet, cell(col+1, 1), h)
		f.SetCellStyle(sheet, cell(col+1, 1), cell(col+1, 1), header)
	}

	for i, r := range records {
		row := i + 2
		f.SetCellValue(sheet, cell(1, row), r.Name)
		f.SetCellValue(sheet, cell(2, row), r.ID)
		f.SetCellValue(sheet, cell(3, row), r.Score)

		found := make(map[string]bool, len(parsed[i]))
		for _, v := range parsed[i] {
			found[v.Label] = v.Found
		}

		for j, label := range labels {
			c := cell(4+j, row)
			isFound, ok := found[label]
			switch {
			case !ok:
				f.SetCellValue(sheet, c, "")
			case isFound:
				f.SetCellValue(sheet, c, scoring.FoundMark)
				f.SetCellStyle(sheet, c, c, foundStyle)
			default:
				f.SetCellValue(sheet, c, scoring.MissingMark)
				f.SetCellStyle(sheet, c, c, missingStyle)
			}
		}
	}

	return freezeHeader(f, sheet)
}
