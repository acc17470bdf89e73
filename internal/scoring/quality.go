package scoring

import (
	"regexp"
	"strings"

	"github.com/fmuoria/cv-auditor/internal/models"
)

const (
	// MinWordCount is the word count below which a CV is flagged as too short
	MinWordCount = 100

	StatusVerified       = "Verified"
	StatusReviewRequired = "Review Required"

	IssueContentTooShort = "Content too short"
	IssueMissingEmail    = "Missing email address"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d{10,15}`)
)

// Inspect runs the contact and length checks on raw text
func Inspect(text string) models.QualityReport {
	report := models.QualityReport{
		EmailFound: emailPattern.MatchString(text),
		PhoneFound: phonePattern.MatchString(text),
		WordCount:  len(strings.Fields(text)),
		Issues:     []string{},
	}

	if report.WordCount < MinWordCount {
		report.Issues = append(report.Issues, IssueContentTooShort)
	}
	if !report.EmailFound {
		report.Issues = append(report.Issues, IssueMissingEmail)
	}

	report.Status = StatusVerified
	if len(report.Issues) > 0 {
		report.Status = StatusReviewRequired
	}

	return report
}
