package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/sassbuild/pkg/sassbuild"
)

var buildFull bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile changed sources",
	Long: `Compiles every eligible source under the input directory when anything under
it changed since the last clean build. Partials are not compiled on their own
but a change to one triggers a rebuild.

With fail_on_error enabled (the default) the command exits non-zero when any
file failed; stylesheets that compiled are written either way.
Use --full to ignore the recorded build state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(nil)
		if err != nil {
			return err
		}
		defer client.Close()

		outcome, err := client.Build(cmd.Context(), sassbuild.BuildOptions{Full: buildFull})
		if outcome != nil {
			for _, f := range outcome.Written {
				detail("%-8s %s", f.Action, f.Path)
			}
			info("%s", summary(outcome))
		}
		return err
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildFull, "full", false, "compile everything regardless of the build state")
	rootCmd.AddCommand(buildCmd)
}
