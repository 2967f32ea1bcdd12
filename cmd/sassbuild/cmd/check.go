package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every source has up-to-date CSS",
	Long: `Walks the input directory and reports stylesheets (and separate source maps)
that are missing or older than the newest input file.
Exit 0 if everything is current; exit non-zero otherwise. Suitable for CI pipelines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(nil)
		if err != nil {
			return err
		}
		defer client.Close()

		result, err := client.Check(cmd.Context())
		if err != nil {
			return err
		}

		if result.Clean {
			info("All %d source(s) are up to date.", result.Checked)
			return nil
		}

		for _, p := range result.Stale {
			info("  stale     %s", p)
		}
		for _, m := range result.Missing {
			info("  missing   %s", m)
		}

		total := len(result.Stale) + len(result.Missing)
		return fmt.Errorf("check failed: %d artifact(s) out of date", total)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
