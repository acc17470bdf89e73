package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fmuoria/cv-auditor/internal/models"
)

// ErrInvalidConfiguration is returned when the category configuration cannot be audited against
var ErrInvalidConfiguration = errors.New("invalid category configuration")

// Auditor checks extracted CV text for the configured sections.
// It holds no mutable state and is safe for concurrent use.
type Auditor struct {
	categories        []models.Category
	delimiter         string
	approvalThreshold int
}

// Option configures an Auditor
type Option func(*Auditor)

// WithDelimiter sets the separator used between summary entries
func WithDelimiter(delimiter string) Option {
	return func(a *Auditor) {
		if delimiter != "" {
			a.delimiter = delimiter
		}
	}
}

// WithApprovalThreshold makes Audit decide Approved or Needs Revision from the number of
// sections found. Zero disables the decision.
func WithApprovalThreshold(n int) Option {
	return func(a *Auditor) {
		if n > 0 {
			a.approvalThreshold = n
		}
	}
}

// NewAuditor validates the category configuration and returns an auditor for it
func NewAuditor(categories []models.Category, opts ...Option) (*Auditor, error) {
	normalized, err := normalizeCategories(categories)
	if err != nil {
		return nil, err
	}

	a := &Auditor{
		categories: normalized,
		delimiter:  DefaultDelimiter,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Audit runs the auditor once with the given configuration
func Audit(text string, categories []models.Category) (models.AuditVerdict, error) {
	a, err := NewAuditor(categories)
	if err != nil {
		return models.AuditVerdict{}, err
	}
	return a.Audit(text), nil
}

// Audit scans the text and reports which categories are present.
// Empty text yields a verdict with every category missing and a score of 0.
func (a *Auditor) Audit(text string) models.AuditVerdict {
	normalized := Normalize(text)

	verdicts := make([]models.Verdict, 0, len(a.categories))
	found := 0
	for _, category := range a.categories {
		verdict := models.Verdict{Label: category.Label}
		for _, keyword := range category.Keywords {
			if strings.Contains(normalized, keyword) {
				verdict.Found = true
				verdict.Matched = keyword
				break
			}
		}
		if verdict.Found {
			found++
		}
		verdicts = append(verdicts, verdict)
	}

	total := len(a.categories)

	verdict := models.AuditVerdict{
		Verdicts:   verdicts,
		FoundCount: found,
		Total:      total,
		Score:      found * 100 / total,
		Summary:    FormatSummary(verdicts, a.delimiter),
	}
	if a.approvalThreshold > 0 {
		verdict.Decision = DecisionNeedsRevision
		if found >= a.approvalThreshold {
			verdict.Decision = DecisionApproved
		}
	}
	return verdict
}

// Categories returns a copy of the normalized configuration
func (a *Auditor) Categories() []models.Category {
	out := make([]models.Category, len(a.categories))
	for i, c := range a.categories {
		out[i] = models.Category{
			Label:    c.Label,
			Keywords: append([]string(nil), c.Keywords...),
		}
	}
	return out
}

// Delimiter returns the summary separator in use
func (a *Auditor) Delimiter() string {
	return a.delimiter
}

// Normalize lowercases the text and collapses every whitespace run to a single space
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// normalizeCategories copies the configuration, normalizing keywords the same way as document text
func normalizeCategories(categories []models.Category) ([]models.Category, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no categories configured", ErrInvalidConfiguration)
	}

	seen := make(map[string]bool, len(categories))
	out := make([]models.Category, 0, len(categories))

	for i, category := range categories {
		label := strings.TrimSpace(category.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: category %d has no label", ErrInvalidConfiguration, i+1)
		}
		if seen[label] {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidConfiguration, label)
		}
		seen[label] = true

		if len(category.Keywords) == 0 {
			return nil, fmt.Errorf("%w: category %q has no keywords", ErrInvalidConfiguration, label)
		}

		keywords := make([]string, 0, len(category.Keywords))
		for _, keyword := range category.Keywords {
			k := Normalize(keyword)
			if k == "" {
				return nil, fmt.Errorf("%w: category %q has a blank keyword", ErrInvalidConfiguration, label)
			}
			keywords = append(keywords, k)
		}

		out = append(out, models.Category{Label: label, Keywords: keywords})
	}

	return out, nil
}
