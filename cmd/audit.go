package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fmuoria/cv-auditor/internal/display"
	"github.com/fmuoria/cv-auditor/internal/models"
)

var auditCmd = &cobra.Command{
	Use:   "audit FILE|-",
	Short: "Audit one CV (pdf, docx, doc, txt, or text on stdin)",
	Long: `Audit one CV and print the section breakdown.

Without --save nothing is recorded. With --save the result is appended to the
record store under --name and --id, and a copy of the file is kept in the
submissions folder.`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().String("name", "", "student name (letters and spaces)")
	auditCmd.Flags().String("id", "", "student ID (up to 10 digits)")
	auditCmd.Flags().Bool("save", false, "record the result in the store")
	auditCmd.Flags().Int("min-text-length", 0, "minimum extracted characters before a file counts as unreadable")
}

func runAudit(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, flagBinding{flag: "min-text-length", key: "ingestion.min-text-length"})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()
	source := args[0]

	name, _ := cmd.Flags().GetString("name")
	id, _ := cmd.Flags().GetString("id")
	save, _ := cmd.Flags().GetBool("save")

	if save {
		var result models.SubmissionResult
		if source == "-" {
			text, err := readStdin(cmd.InOrStdin())
			if err != nil {
				return err
			}
			result, err = rt.agent.Submit(ctx, models.Document{Name: name, ID: id, Text: text})
			if err != nil {
				return err
			}
		} else {
			result, err = rt.agent.SubmitFile(ctx, name, id, source)
			if err != nil {
				return err
			}
		}

		return rt.emit(out, result, func() { display.Submission(out, result) })
	}

	var text string
	if source == "-" {
		text, err = readStdin(cmd.InOrStdin())
	} else {
		text, err = rt.agent.ExtractText(ctx, source)
	}
	if err != nil {
		return err
	}

	verdict, quality := rt.agent.Preview(text)
	payload := struct {
		Verdict models.AuditVerdict  `json:"verdict"`
		Quality models.QualityReport `json:"quality"`
	}{verdict, quality}

	return rt.emit(out, payload, func() { display.Verdict(out, verdict, quality) })
}

func readStdin(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", fmt.Errorf("no input on stdin")
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}
