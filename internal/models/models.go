package models

import "time"

// Category is one expected CV section and the keywords that signal its presence
type Category struct {
	Label    string   `json:"label" yaml:"label"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Document holds the extracted text of one submission
type Document struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Text string `json:"text"`
	Path string `json:"path,omitempty"`
}

// Verdict is the found/missing determination for one category
type Verdict struct {
	Label   string `json:"label"`
	Found   bool   `json:"found"`
	Matched string `json:"matched,omitempty"` // first keyword that matched
}

// AuditVerdict is the outcome of auditing one document
type AuditVerdict struct {
	Verdicts   []Verdict `json:"verdicts"`
	FoundCount int       `json:"found_count"`
	Total      int       `json:"total"`
	Score      int       `json:"score"` // 0-100
	Summary    string    `json:"summary"`
	Decision   string    `json:"decision,omitempty"` // set when an approval threshold is configured
}

// Missing returns the labels of categories that were not found
func (v AuditVerdict) Missing() []string {
	missing := make([]string, 0, len(v.Verdicts))
	for _, verdict := range v.Verdicts {
		if !verdict.Found {
			missing = append(missing, verdict.Label)
		}
	}
	return missing
}

// QualityReport holds the contact and length checks run next to the audit
type QualityReport struct {
	EmailFound bool     `json:"email_found"`
	PhoneFound bool     `json:"phone_found"`
	WordCount  int      `json:"word_count"`
	Issues     []string `json:"issues"`
	Status     string   `json:"status"` // "Verified" or "Review Required"
}

// Record is one row of the record store. Resubmissions append new rows.
type Record struct {
	Name         string    `json:"name"`
	ID           string    `json:"id"`
	Score        int       `json:"score"`
	AuditDetails string    `json:"audit_details"`
	Timestamp    time.Time `json:"timestamp"`
}

// SubmissionResult is returned to callers after a document was audited and stored
type SubmissionResult struct {
	Record  Record        `json:"record"`
	Verdict AuditVerdict  `json:"verdict"`
	Quality QualityReport `json:"quality"`
	File    string        `json:"file,omitempty"`
}

// BatchFailure describes a file that could not be audited
type BatchFailure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// BatchReport summarizes a directory run
type BatchReport struct {
	Audited  []SubmissionResult `json:"audited"`
	Failures []BatchFailure     `json:"failures"`
	Skipped  []BatchFailure     `json:"skipped"`
}

// StudentReport is the current status of one student plus their submission history
type StudentReport struct {
	Latest   Record    `json:"latest"`
	Verdicts []Verdict `json:"verdicts"`
	History  []Record  `json:"history"`
}
