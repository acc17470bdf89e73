package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/fmuoria/cv-auditor/internal/export"
	"github.com/fmuoria/cv-auditor/internal/models"
	"github.com/fmuoria/cv-auditor/internal/scoring"
)

const timestampLayout = "2006-01-02 15:04"

var (
	found   = color.New(color.FgGreen).SprintFunc()
	missing = color.New(color.FgRed).SprintFunc()
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

// Score colours a score by its band
func Score(score int) string {
	s := strconv.Itoa(score)
	switch export.Band(score) {
	case export.BandExcellent, export.BandGood:
		return found(s)
	case export.BandFair:
		return warning(s)
	default:
		return missing(s)
	}
}

// Status colours a quality status or an approval decision
func Status(status string) string {
	if status == scoring.StatusVerified || status == scoring.DecisionApproved {
		return found(status)
	}
	return warning(status)
}

// Verdict prints the per-category breakdown and the quality checks of one audit
func Verdict(w io.Writer, verdict models.AuditVerdict, quality models.QualityReport) {
	table := newTable(w, []string{"Category", "Status", "Matched"})
	for _, v := range verdict.Verdicts {
		status := missing(scoring.MissingMark)
		if v.Found {
			status = found(scoring.FoundMark)
		}
		table.Append([]string{v.Label, status, v.Matched})
	}
	table.Render()

	fmt.Fprintf(w, "Score: %s%% (%d/%d sections)\n", Score(verdict.Score), verdict.FoundCount, verdict.Total)
	if verdict.Decision != "" {
		fmt.Fprintf(w, "Decision: %s\n", Status(verdict.Decision))
	}
	fmt.Fprintf(w, "Quality: %s (%d words, email %s, phone %s)\n",
		Status(quality.Status), quality.WordCount, yesNo(quality.EmailFound), yesNo(quality.PhoneFound))
	for _, issue := range quality.Issues {
		fmt.Fprintf(w, "  - %s\n", warning(issue))
	}
}

// Submission prints a stored submission result
func Submission(w io.Writer, result models.SubmissionResult) {
	fmt.Fprintln(w, heading(fmt.Sprintf("%s (%s)", result.Record.Name, result.Record.ID)))
	Verdict(w, result.Verdict, result.Quality)
}

// Records prints one row per record
func Records(w io.Writer, records []models.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, warning("No records found."))
		return
	}

	table := newTable(w, []string{"Name", "ID", "Score", "Missing", "Timestamp"})
	for _, r := range records {
		table.Append([]string{
			r.Name,
			r.ID,
			Score(r.Score),
			strconv.Itoa(countMissing(r.AuditDetails)),
			r.Timestamp.Format(timestampLayout),
		})
	}
	table.Render()
}

// Student prints the current breakdown and submission history of one student
func Student(w io.Writer, report models.StudentReport) {
	fmt.Fprintln(w, heading(fmt.Sprintf("%s (%s)", report.Latest.Name, report.Latest.ID)))
	fmt.Fprintf(w, "Current score: %s%%\n", Score(report.Latest.Score))

	table := newTable(w, []string{"Category", "Status"})
	for _, v := range report.Verdicts {
		if v.Found {
			table.Append([]string{v.Label, found(scoring.FoundMark)})
		} else {
			table.Append([]string{v.Label, missing(scoring.MissingMark)})
		}
	}
	table.Render()

	if len(report.History) > 1 {
		fmt.Fprintln(w, heading("History"))
		history := newTable(w, []string{"#", "Score", "Timestamp"})
		for i, r := range report.History {
			history.Append([]string{strconv.Itoa(i + 1), Score(r.Score), r.Timestamp.Format(timestampLayout)})
		}
		history.Render()
	}
}

// Batch prints the outcome of a directory run
func Batch(w io.Writer, report models.BatchReport) {
	if len(report.Audited) > 0 {
		table := newTable(w, []string{"File", "Name", "ID", "Score", "Quality"})
		for _, r := range report.Audited {
			table.Append([]string{r.File, r.Record.Name, r.Record.ID, Score(r.Record.Score), Status(r.Quality.Status)})
		}
		table.Render()
	}

	if len(report.Failures)+len(report.Skipped) > 0 {
		table := newTable(w, []string{"File", "Reason"})
		for _, f := range report.Failures {
			table.Append([]string{f.File, missing(f.Reason)})
		}
		for _, s := range report.Skipped {
			table.Append([]string{s.File, warning("skipped: " + s.Reason)})
		}
		table.Render()
	}

	fmt.Fprintf(w, "Audited: %s, failed: %s, skipped: %d\n",
		found(len(report.Audited)), missing(len(report.Failures)), len(report.Skipped))
}

// Categories prints the active keyword table
func Categories(w io.Writer, categories []models.Category) {
	table := newTable(w, []string{"#", "Category", "Keywords"})
	for i, c := range categories {
		table.Append([]string{strconv.Itoa(i + 1), c.Label, strings.Join(c.Keywords, ", ")})
	}
	table.Render()
}

func yesNo(b bool) string {
	if b {
		return found("yes")
	}
	return missing("no")
}

func countMissing(details string) int {
	return strings.Count(details, scoring.MissingMark)
}
