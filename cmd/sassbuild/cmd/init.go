package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default sassbuild.yaml scaffold.
const initTemplate = `# sassbuild configuration
version: 1

# Directory holding the .scss (or .sass) sources. Files starting with "_"
# are partials and are only compiled through the files importing them.
input_path: src/main/sass

# Directory receiving the generated CSS, mirroring the input layout.
output_path: target

# Source maps go next to the CSS unless a separate directory is given.
generate_source_map: true
# source_map_output_path: target/maps

# input_syntax: scss            # scss or sass
# output_style: nested          # nested or compressed
# include_paths:
#   - node_modules

# Stop with a non-zero exit when any file fails to compile.
fail_on_error: true

# copy_source_to_output: false  # copy sources next to the CSS and compile the copy

# compiler:
#   command: sass
#   args: []

# Publish diagnostics and refresh events to NATS.
# events:
#   nats_url: nats://localhost:4222
#   subject: sassbuild.events
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter sassbuild.yaml configuration",
	Long: `Creates a sassbuild.yaml file in the current directory with a commented
template of every setting.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Point input_path and output_path at your directories")
		info("  2. Run 'sassbuild build' to compile")
		info("  3. Run 'sassbuild watch' to rebuild on every change")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
