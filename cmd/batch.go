package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fmuoria/cv-auditor/internal/display"
)

var batchCmd = &cobra.Command{
	Use:   "batch DIR",
	Short: "Audit every <Name>_<ID>.<ext> file in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("workers", "w", 0, "number of files audited concurrently (default from config)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, flagBinding{flag: "workers", key: "batch.workers"})
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	progress := cmd.ErrOrStderr()
	rt.agent.SetProgressCallback(func(current, total int, message string) {
		rt.logger.Debug("progress", zap.Int("current", current), zap.Int("total", total))
		if rt.output == outputTable {
			fmt.Fprintf(progress, "[%d/%d] %s\n", current, total, message)
		}
	})

	report, err := rt.agent.ProcessDirectory(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	if err := rt.emit(out, report, func() { display.Batch(out, report) }); err != nil {
		return err
	}

	if len(report.Audited) == 0 && len(report.Failures) > 0 {
		return fmt.Errorf("no file in %s could be audited", args[0])
	}
	return nil
}
