package scoring

import (
	"fmt"
	"strings"

	"github.com/fmuoria/cv-auditor/internal/models"
)

const (
	// PresetDetailed is the ten-category portal configuration
	PresetDetailed = "detailed"
	// PresetBasic is the three-category class portal configuration
	PresetBasic = "basic"

	// BasicApprovalThreshold is the number of sections the class portal requires for approval
	BasicApprovalThreshold = 2

	// Approval decisions
	DecisionApproved      = "Approved"
	DecisionNeedsRevision = "Needs Revision"
)

// DetailedCategories returns the ten-section configuration used by the submission portal
func DetailedCategories() []models.Category {
	return []models.Category{
		{Label: "Personal Profile", Keywords: []string{"profile", "summary", "objective", "about me", "career", "biography", "statement"}},
		{Label: "Personal Details", Keywords: []string{"nationality", "date of birth", "gender", "marital status", "id number", "dob", "bio", "residence"}},
		{Label: "Contact Info", Keywords: []string{"email", "phone", "address", "contact", "cell", "telephone", "mobile"}},
		{Label: "Language Proficiency", Keywords: []string{"language", "english", "swahili", "proficiency", "speak"}},
		{Label: "Academic Qualification", Keywords: []string{"academic", "education", "degree", "university", "school", "college", "kcse"}},
		{Label: "Professional Qualification", Keywords: []string{"professional qualification", "certification", "certified", "diploma"}},
		{Label: "Professional Experience", Keywords: []string{"experience", "employment", "work history", "internship", "duties"}},
		{Label: "Training & Workshops", Keywords: []string{"training", "workshop", "seminar", "course"}},
		{Label: "Technical Literacy", Keywords: []string{"computer", "literacy", "software", "ict", "digital", "office", "excel", "word"}},
		{Label: "Referees", Keywords: []string{"referees", "references", "recommendation", "referee"}},
	}
}

// BasicCategories returns the three-section configuration
func BasicCategories() []models.Category {
	return []models.Category{
		{Label: "Education", Keywords: []string{"education", "degree", "university", "college"}},
		{Label: "Experience", Keywords: []string{"experience", "work", "employment", "internship"}},
		{Label: "Skills", Keywords: []string{"skills", "tools", "technologies", "competencies"}},
	}
}

// PresetApprovalThreshold returns the approval threshold a preset decides with, or 0 when the
// preset only scores
func PresetApprovalThreshold(name string) int {
	if strings.ToLower(strings.TrimSpace(name)) == PresetBasic {
		return BasicApprovalThreshold
	}
	return 0
}

// Preset looks up a built-in configuration by name. An empty name selects the detailed preset.
func Preset(name string) ([]models.Category, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetDetailed:
		return DetailedCategories(), nil
	case PresetBasic:
		return BasicCategories(), nil
	default:
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfiguration, name)
	}
}
