package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fmuoria/cv-auditor/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export OUTPUT",
	Short: "Write the submission log to an Excel report",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolP("latest", "l", false, "only the most recent submission per student")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	if err := export.ExportToExcel(records, rt.auditor.Delimiter(), args[0]); err != nil {
		return err
	}

	rt.logger.Info("report exported", zap.String("output", args[0]), zap.Int("records", len(records)))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records\n", len(records))
	return nil
}
