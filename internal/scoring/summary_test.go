package scoring

import (
	"errors"
	"testing"

	"github.com/fmuoria/cv-auditor/internal/models"
)

func TestFormatSummary(t *testing.T) {
	verdicts := []models.Verdict{
		{Label: "Contact Info", Found: true},
		{Label: "Referees", Found: false},
	}

	got := FormatSummary(verdicts, "")
	want := "Contact Info: ✅ Found | Referees: ❌ Missing"
	if got != want {
		t.Errorf("FormatSummary() = %q, want %q", got, want)
	}

	if got := FormatSummary(nil, ""); got != "" {
		t.Errorf("FormatSummary(nil) = %q, want empty", got)
	}
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name    string
		details string
		want    []models.Verdict
	}{
		{
			name:    "Empty",
			details: "",
			want:    nil,
		},
		{
			name:    "Two entries",
			details: "Contact Info: ✅ Found | Referees: ❌ Missing",
			want: []models.Verdict{
				{Label: "Contact Info", Found: true},
				{Label: "Referees", Found: false},
			},
		},
		{
			name:    "Malformed entry skipped",
			details: "garbage | Referees: ✅ Found",
			want: []models.Verdict{
				{Label: "Referees", Found: true},
			},
		},
		{
			name:    "Label containing colon",
			details: "Training: Workshops: ✅ Found",
			want: []models.Verdict{
				{Label: "Training: Workshops", Found: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSummary(tt.details, DefaultDelimiter)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSummary() returned %d verdicts, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Verdict %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseSummary_RoundTrip(t *testing.T) {
	a := mustAuditor(t, DetailedCategories())
	v := a.Audit("Profile summary, email address, english, referees")

	parsed := ParseSummary(v.Summary, a.Delimiter())
	if len(parsed) != len(v.Verdicts) {
		t.Fatalf("Parsed %d verdicts, want %d", len(parsed), len(v.Verdicts))
	}
	for i := range parsed {
		if parsed[i].Label != v.Verdicts[i].Label || parsed[i].Found != v.Verdicts[i].Found {
			t.Errorf("Verdict %d = %+v, want %+v", i, parsed[i], v.Verdicts[i])
		}
	}
}

func TestPreset(t *testing.T) {
	tests := []struct {
		name      string
		preset    string
		wantCount int
		wantErr   bool
	}{
		{name: "Default", preset: "", wantCount: 10},
		{name: "Detailed", preset: "detailed", wantCount: 10},
		{name: "Basic upper case", preset: " BASIC ", wantCount: 3},
		{name: "Unknown", preset: "llm", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			categories, err := Preset(tt.preset)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfiguration) {
					t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Preset() failed: %v", err)
			}
			if len(categories) != tt.wantCount {
				t.Errorf("Preset(%q) returned %d categories, want %d", tt.preset, len(categories), tt.wantCount)
			}
			if _, err := NewAuditor(categories); err != nil {
				t.Errorf("Preset(%q) is not a valid configuration: %v", tt.preset, err)
			}
		})
	}
}

func TestDetailedCategories_KeywordsLowercase(t *testing.T) {
	for _, c := range DetailedCategories() {
		if len(c.Keywords) < 4 || len(c.Keywords) > 8 {
			t.Errorf("Category %q has %d keywords", c.Label, len(c.Keywords))
		}
		for _, k := range c.Keywords {
			if Normalize(k) != k {
				t.Errorf("Keyword %q of %q is not normalized", k, c.Label)
			}
		}
	}
}
