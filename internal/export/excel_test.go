package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/cv-auditor/internal/models"
	"github.com/fmuoria/cv-auditor/internal/scoring"
)

func testRecords() []models.Record {
	ts := time.Date(2025, time.June, 2, 14, 5, 0, 0, time.UTC)
	return []models.Record{
		{
			Name:         "Jane Doe",
			ID:           "101",
			Score:        100,
			AuditDetails: "Contact Info: ✅ Found | Referees: ✅ Found",
			Timestamp:    ts,
		},
		{
			Name:         "John Smith",
			ID:           "102",
			Score:        50,
			AuditDetails: "Contact Info: ✅ Found | Referees: ❌ Missing",
			Timestamp:    ts,
		},
	}
}

// TestExportToExcel_EnsuresXlsxExtension tests that .xlsx extension is added if missing
func TestExportToExcel_EnsuresXlsxExtension(t *testing.T) {
	tmpDir := t.TempDir()

	outputPath := filepath.Join(tmpDir, "test_report")
	if err := ExportToExcel(testRecords(), scoring.DefaultDelimiter, outputPath); err != nil {
		t.Fatalf("ExportToExcel() failed: %v", err)
	}

	expectedPath := outputPath + ".xlsx"
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Errorf("Expected file at %s but it doesn't exist", expectedPath)
	}
}

// TestExportToExcel_HandlesExistingXlsxExtension tests that existing .xlsx extension is preserved
func TestExportToExcel_HandlesExistingXlsxExtension(t *testing.T) {
	tmpDir := t.TempDir()

	outputPath := filepath.Join(tmpDir, "test_report.XLSX")
	if err := ExportToExcel(testRecords(), scoring.DefaultDelimiter, outputPath); err != nil {
		t.Fatalf("ExportToExcel() failed: %v", err)
	}

	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		t.Errorf("Expected file at %s but it doesn't exist", outputPath)
	}
	if _, err := os.Stat(outputPath + ".xlsx"); err == nil {
		t.Error("Should not have double .xlsx extension")
	}
}

// TestExportToExcel_EmptyRecords tests export with no records
func TestExportToExcel_EmptyRecords(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty_report.xlsx")
	if err := ExportToExcel(nil, scoring.DefaultDelimiter, outputPath); err != nil {
		t.Fatalf("ExportToExcel() should handle empty records: %v", err)
	}

	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		t.Errorf("Expected file at %s but it doesn't exist", outputPath)
	}
}

// TestWrite_Contents tests the sheets and key cells of a streamed workbook
func TestWrite_Contents(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testRecords(), scoring.DefaultDelimiter); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	sheets := strings.Join(f.GetSheetList(), ",")
	if sheets != "Summary,Submissions,Category Breakdown" {
		t.Fatalf("unexpected sheets: %s", sheets)
	}

	tests := []struct {
		sheet string
		cell  string
		want  string
	}{
		{"Summary", "A1", "CV Audit Report"},
		{"Summary", "B4", "2"},
		{"Summary", "B5", "2"},
		{"Submissions", "A1", "Name"},
		{"Submissions", "A2", "Jane Doe"},
		{"Submissions", "C3", "50"},
		{"Submissions", "D2", BandExcellent},
		{"Submissions", "D3", BandFair},
		{"Submissions", "E2", "2025-06-02 14:05"},
		{"Category Breakdown", "D1", "Contact Info"},
		{"Category Breakdown", "E1", "Referees"},
		{"Category Breakdown", "E2", scoring.FoundMark},
		{"Category Breakdown", "E3", scoring.MissingMark},
	}

	for _, tt := range tests {
		t.Run(tt.sheet+"!"+tt.cell, func(t *testing.T) {
			got, err := f.GetCellValue(tt.sheet, tt.cell)
			if err != nil {
				t.Fatalf("GetCellValue() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("%s!%s = %q, want %q", tt.sheet, tt.cell, got, tt.want)
			}
		})
	}
}

// TestBand tests the score band thresholds
func TestBand(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, BandExcellent},
		{90, BandExcellent},
		{89, BandGood},
		{70, BandGood},
		{69, BandFair},
		{50, BandFair},
		{49, BandPoor},
		{0, BandPoor},
	}

	for _, tt := range tests {
		if got := Band(tt.score); got != tt.want {
			t.Errorf("Band(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
