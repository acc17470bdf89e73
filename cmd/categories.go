package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fmuoria/cv-auditor/internal/config"
	"github.com/fmuoria/cv-auditor/internal/display"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show the active section keyword table",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)

	categoriesCmd.Flags().String("preset", "", "keyword preset: detailed or basic (default from config)")
	categoriesCmd.Flags().String("write", "", "save the table as YAML to this file")
}

func runCategories(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd, flagBinding{flag: "preset", key: "categories.preset"})
	if err != nil {
		return err
	}
	defer rt.Close()

	categories := rt.agent.Categories()

	if path, _ := cmd.Flags().GetString("write"); path != "" {
		if err := config.SaveCategoriesFile(path, categories); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d categories to %s\n", len(categories), path)
	}

	out := cmd.OutOrStdout()
	return rt.emit(out, categories, func() { display.Categories(out, categories) })
}
