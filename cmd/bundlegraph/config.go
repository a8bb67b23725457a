// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/invowk/bundlegraph/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `bundlegraph config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bundlegraph configuration",
		Long: `Manage bundlegraph configuration.

Configuration is stored in:
  - Linux: ~/.config/bundlegraph/config.cue
  - macOS: ~/Library/Application Support/bundlegraph/config.cue
  - Windows: %APPDATA%\bundlegraph\config.cue

BUNDLEGRAPH_* environment variables override file values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			source := "(using defaults)"
			if loaded.Path != "" {
				source = loaded.Path
			}
			fmt.Fprintf(app.stdout, "// source: %s\n", source)
			fmt.Fprint(app.stdout, config.GenerateCUE(loaded.Config))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			path, err := config.CreateDefaultConfig(app.Fs, dir)
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration directory",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, dir)
			return nil
		},
	})

	return cfgCmd
}
