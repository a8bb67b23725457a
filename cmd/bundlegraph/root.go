// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for bundlegraph.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bundlegraph",
		Short: "Compose module catalogs and compute classpaths",
		Long: TitleStyle.Render("bundlegraph") + SubtitleStyle.Render(" - compose module catalogs and compute classpaths") + `

bundlegraph merges workspace projects with binary module repositories,
computes per-module classpaths with visibility restrictions from a
resolved-state file, resolves aggregates for a target environment and
explains why a module failed to resolve.

` + SubtitleStyle.Render("Examples:") + `
  bundlegraph list                          List every known module
  bundlegraph classpath lib.core            Classpath of the highest lib.core
  bundlegraph aggregate feat@1.0.0 --os win32
  bundlegraph why app.main@2.0.0            Root cause of an unresolved module
  bundlegraph watch                         Refresh on descriptor changes
  bundlegraph config show                   Show the effective configuration`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/bundlegraph/config.cue)")
	flags.StringArrayVar(&app.opts.workspace, "workspace", nil, "workspace project directory (repeatable, overrides config)")
	flags.StringArrayVar(&app.opts.repositories, "repository", nil, "binary repository directory (repeatable, overrides config)")
	flags.StringVar(&app.opts.statePath, "state", "", "resolved-state CUE file (overrides config)")

	rootCmd.AddCommand(
		newListCommand(app),
		newClasspathCommand(app),
		newAggregateCommand(app),
		newWhyCommand(app),
		newWatchCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		explain(app.stderr, err, app.opts.verbose)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
