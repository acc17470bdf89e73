package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmuoria/cv-auditor/internal/models"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := "store:\n" +
		"  backend: csv\n" +
		"  path: " + filepath.Join(dir, "records.csv") + "\n" +
		"ingestion:\n" +
		"  submissions-dir: " + filepath.Join(dir, "submissions") + "\n"

	path := filepath.Join(dir, "cvaudit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path, dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.Execute()
	return out.String(), err
}

// TestCommands_SubmissionLifecycle tests audit, records, export and reset against a CSV store
func TestCommands_SubmissionLifecycle(t *testing.T) {
	cfgPath, dir := writeConfig(t)

	out, err := execute(t, "", "categories", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	var cats []models.Category
	require.NoError(t, json.Unmarshal([]byte(out), &cats))
	assert.Len(t, cats, 10)

	out, err = execute(t, "email referees", "audit", "-", "--config", cfgPath, "-o", "json",
		"--save", "--name", "Jane Doe", "--id", "123")
	require.NoError(t, err)
	var result models.SubmissionResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 20, result.Record.Score)
	assert.Equal(t, "123", result.Record.ID)

	out, err = execute(t, "", "records", "list", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	var records []models.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Jane Doe", records[0].Name)

	out, err = execute(t, "", "records", "show", "123", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	var report models.StudentReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.History, 1)
	assert.Len(t, report.Verdicts, 10)

	reportPath := filepath.Join(dir, "report")
	_, err = execute(t, "", "export", reportPath, "--config", cfgPath, "-o", "table")
	require.NoError(t, err)
	assert.FileExists(t, reportPath+".xlsx")

	_, err = execute(t, "", "records", "reset", "--yes", "--config", cfgPath)
	require.NoError(t, err)

	out, err = execute(t, "", "records", "list", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

// TestCommands_RejectsInvalidInput tests argument and configuration errors
func TestCommands_RejectsInvalidInput(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{name: "unknown output", args: []string{"categories", "--config", cfgPath, "-o", "xml"}},
		{name: "missing config", args: []string{"categories", "--config", filepath.Join(t.TempDir(), "none.yaml"), "-o", "table"}},
		{name: "invalid id", stdin: "email", args: []string{"audit", "-", "--config", cfgPath, "-o", "table", "--save", "--name", "Jane", "--id", "abc"}},
		{name: "unknown student", args: []string{"records", "show", "999", "--config", cfgPath, "-o", "table"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.stdin, tt.args...)
			assert.Error(t, err)
		})
	}
}
