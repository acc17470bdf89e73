package scoring

import (
	"strings"

	"github.com/fmuoria/cv-auditor/internal/models"
)

const (
	// DefaultDelimiter separates the entries of a formatted summary
	DefaultDelimiter = " | "
	// FoundMark is appended to the label of a category that was found
	FoundMark = "✅ Found"
	// MissingMark is appended to the label of a category that was not found
	MissingMark = "❌ Missing"
)

// FormatSummary renders verdicts as "{label}: {mark}" entries joined by delimiter
func FormatSummary(verdicts []models.Verdict, delimiter string) string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	parts := make([]string, len(verdicts))
	for i, v := range verdicts {
		mark := MissingMark
		if v.Found {
			mark = FoundMark
		}
		parts[i] = v.Label + ": " + mark
	}

	return strings.Join(parts, delimiter)
}

// ParseSummary reads a stored summary back into ordered verdicts.
// Entries without a "label: mark" shape are skipped.
func ParseSummary(details, delimiter string) []models.Verdict {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	details = strings.TrimSpace(details)
	if details == "" {
		return nil
	}

	var verdicts []models.Verdict
	for _, segment := range strings.Split(details, delimiter) {
		idx := strings.LastIndex(segment, ": ")
		if idx <= 0 {
			continue
		}

		label := strings.TrimSpace(segment[:idx])
		if label == "" {
			continue
		}

		verdicts = append(verdicts, models.Verdict{
			Label: label,
			Found: strings.Contains(segment[idx+2:], "✅"),
		})
	}

	return verdicts
}
