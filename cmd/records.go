package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/fmuoria/cv-auditor/internal/display"
	"github.com/fmuoria/cv-auditor/internal/store"
)

const (
	promptYes = "Yes"
	promptNo  = "No"
)

var errAborted = errors.New("aborted")

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect or reset the submission log",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded submissions",
	Args:  cobra.NoArgs,
	RunE:  runRecordsList,
}

var recordsShowCmd = &cobra.Command{
	Use:   "show [ID]",
	Short: "Show the current status and history of one student",
	Long:  "Show the current status and history of one student. Without ID a student is picked interactively.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRecordsShow,
}

var recordsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every record and every stored submission",
	Args:  cobra.NoArgs,
	RunE:  runRecordsReset,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd, recordsShowCmd, recordsResetCmd)

	recordsListCmd.Flags().BoolP("latest", "l", false, "only the most recent submission per student")
	recordsResetCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func runRecordsList(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	latest, _ := cmd.Flags().GetBool("latest")
	records, err := rt.agent.Records(commandContext(cmd), latest)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return rt.emit(out, records, func() { display.Records(out, records) })
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := commandContext(cmd)

	var id string
	if len(args) == 1 {
		id = args[0]
	} else {
		latest, err := rt.agent.Records(ctx, true)
		if err != nil {
			return err
		}
		if len(latest) == 0 {
			return fmt.Errorf("%w: no submissions recorded", store.ErrNotFound)
		}

		items := make([]string, 0, len(latest))
		for _, r := range latest {
			items = append(items, fmt.Sprintf("%s %s (%d%%)", r.ID, r.Name, r.Score))
		}

		studentPrompt := promptui.Select{
			Label: "Choose a student and press ENTER",
			Items: items,
		}
		_, selected, err := studentPrompt.Run()
		if err != nil {
			return err
		}
		id = strings.Split(selected, " ")[0]
	}

	report, err := rt.agent.StudentRecord(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return rt.emit(out, report, func() { display.Student(out, report) })
}

func runRecordsReset(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		confirm := promptui.Select{
			Label: "Delete all records and stored submissions?",
			Items: []string{promptNo, promptYes},
		}
		_, answer, err := confirm.Run()
		if err != nil {
			return err
		}
		if answer != promptYes {
			return errAborted
		}
	}

	if err := rt.agent.Reset(commandContext(cmd)); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "All records cleared.")
	return nil
}
