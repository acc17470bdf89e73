package ingestion

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxStudentIDLength is the longest accepted student ID
	MaxStudentIDLength = 10
	// UnknownStudent is used when nothing of a name survives cleaning
	UnknownStudent = "Unknown Student"
)

var (
	namePattern      = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	idPattern        = regexp.MustCompile(`^[0-9]+$`)
	nonLetterPattern = regexp.MustCompile(`[^a-zA-Z\s]`)

	// filenameNoise is removed from file names before they are read as student names
	filenameNoise = []string{"cv", "resume", "2026", "2025"}
)

// ValidationError describes a rejected submission field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidateSubmission checks the student name and ID of a submission
func ValidateSubmission(name, id string) error {
	name = strings.TrimSpace(name)
	id = strings.TrimSpace(id)

	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if !namePattern.MatchString(name) {
		return &ValidationError{Field: "name", Message: "only letters (A-Z) and spaces are allowed"}
	}

	if id == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if !idPattern.MatchString(id) || len(id) > MaxStudentIDLength {
		return &ValidationError{Field: "id", Message: fmt.Sprintf("id must be numbers only and no more than %d digits", MaxStudentIDLength)}
	}

	return nil
}

// ValidStudentID reports whether id would pass ValidateSubmission
func ValidStudentID(id string) bool {
	return idPattern.MatchString(id) && len(id) <= MaxStudentIDLength
}

// CleanStudentName turns a CV file name such as "john_doe_CV_2025.pdf" into "John Doe"
func CleanStudentName(filename string) string {
	name := strings.ToLower(filename)
	if IsSupported(name) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	for _, noise := range filenameNoise {
		name = strings.ReplaceAll(name, noise, "")
	}

	name = nonLetterPattern.ReplaceAllString(name, " ")

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	if len(words) == 0 {
		return UnknownStudent
	}
	return strings.Join(words, " ")
}
