package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bianoble/sassbuild/internal/compiler"
	"github.com/bianoble/sassbuild/internal/state"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the effective configuration and build state",
	Long: `Displays the sassbuild version, the config files consulted, the resolved
input and output directories, the compiler and the recorded build state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("sassbuild %s\n", version)

		client, err := newClient(nil)
		if err != nil {
			return err
		}
		defer client.Close()
		cfg := client.Config()

		layers := client.Layers()
		if len(layers) > 1 {
			fmt.Println("  config chain:")
			for _, layer := range layers {
				status := "not found"
				if layer.Loaded {
					status = "loaded"
				}
				fmt.Printf("    %-10s %s (%s)\n", string(layer.Level)+":", layer.Path, status)
			}
		} else if len(layers) == 1 {
			fmt.Printf("  config:        %s\n", layers[0].Path)
		}

		fmt.Printf("  input:         %s (%s)\n", cfg.InputRoot(), cfg.Ext())
		fmt.Printf("  output:        %s\n", cfg.OutputRoot())
		if cfg.GenerateSourceMap && !cfg.EmbedSourceMapInCSS {
			fmt.Printf("  source maps:   %s\n", cfg.SourceMapRoot())
		}
		fmt.Printf("  style:         %s\n", cfg.OutputStyle)
		fmt.Printf("  compiler:      %s\n", compilerVersion(cmd.Context(), client.Compiler()))

		fmt.Printf("  state file:    %s\n", cfg.StatePath())
		st, statErr := os.Stat(cfg.StatePath())
		prev, loadErr := state.Load(cfg.StatePath())
		switch {
		case statErr != nil || loadErr != nil:
			fmt.Println("  last build:    none")
		default:
			fmt.Printf("  state size:    %s\n", humanSize(st.Size()))
			fmt.Printf("  last build:    %s (%d sources, %d inputs fingerprinted)\n",
				prev.RunID, len(prev.Outputs), len(prev.Fingerprints))
		}
		return nil
	},
}

func compilerVersion(ctx context.Context, c compiler.Compiler) string {
	exec, ok := c.(*compiler.Exec)
	if !ok {
		return fmt.Sprintf("%T", c)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	v, err := exec.Version(ctx)
	if err != nil {
		return exec.Command + " (not found)"
	}
	return exec.Command + " " + v
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
