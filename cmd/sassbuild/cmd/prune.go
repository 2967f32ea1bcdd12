package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/sassbuild/pkg/sassbuild"
)

var pruneDryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove CSS whose source no longer exists",
	Long: `Compares the outputs recorded in the build state against the input directory.
Removes stylesheets and source maps of sources that were deleted or renamed.
Only files inside the output directories are touched.
Use --dry-run to see what would be removed without acting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(nil)
		if err != nil {
			return err
		}
		defer client.Close()

		result, err := client.Prune(cmd.Context(), sassbuild.PruneOptions{DryRun: pruneDryRun})
		if err != nil {
			return err
		}

		if pruneDryRun {
			info("Dry run, no files removed.")
		}

		if len(result.Removed) == 0 {
			info("Nothing to prune.")
			return nil
		}

		for _, f := range result.Removed {
			info("  %s  %s", f.Action, f.Path)
		}
		info("\nPruned %d file(s).", len(result.Removed))

		if len(result.Errors) > 0 {
			for _, e := range result.Errors {
				errorf("%s: %s", e.Source, e.Err)
			}
			return fmt.Errorf("%d error(s) during prune", len(result.Errors))
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "show what would be removed without acting")
	rootCmd.AddCommand(pruneCmd)
}
