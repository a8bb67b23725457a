// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/invowk/bundlegraph/internal/config"
	"github.com/invowk/bundlegraph/internal/issue"
	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/platform"
	"github.com/invowk/bundlegraph/pkg/state"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and opens a session through it.
	App struct {
		Config config.Provider
		Fs     afero.Fs
		stdout io.Writer
		stderr io.Writer
		opts   rootOptions
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Fs     afero.Fs
		Stdout io.Writer
		Stderr io.Writer
	}

	// rootOptions holds the persistent flag values.
	rootOptions struct {
		configPath   string
		verbose      bool
		workspace    []string
		repositories []string
		statePath    string
	}

	// session is one command invocation's composed platform.
	session struct {
		cfg      *config.Config
		logger   *log.Logger
		platform *platform.Platform
		env      catalog.Environment
		fs       afero.Fs
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		Fs:     deps.Fs,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Fs == nil {
		app.Fs = afero.NewOsFs()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig loads configuration and applies flag overrides.
func (a *App) loadConfig(ctx context.Context) (*config.Loaded, error) {
	loaded, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.opts.configPath, Fs: a.Fs})
	if err != nil {
		return nil, a.fail("load configuration", a.opts.configPath, err)
	}

	cfg := loaded.Config
	if len(a.opts.workspace) > 0 {
		cfg.Workspace = a.opts.workspace
	}
	if len(a.opts.repositories) > 0 {
		cfg.Repositories = a.opts.repositories
	}
	if a.opts.statePath != "" {
		cfg.StateFile = a.opts.statePath
	}
	return loaded, nil
}

// open loads configuration and composes the platform from it.
func (a *App) open(ctx context.Context) (*session, error) {
	loaded, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config
	logger := a.newLogger(cfg.LogLevel)

	var workspace catalog.Source
	if len(cfg.Workspace) > 0 {
		workspace = catalog.NewWorkspaceCatalog(a.Fs, cfg.Workspace, catalog.WithCatalogLogger(logger))
	}
	repos := make([]catalog.Source, 0, len(cfg.Repositories))
	for _, root := range cfg.Repositories {
		repos = append(repos, catalog.NewRepositoryCatalog(a.Fs, root, catalog.WithCatalogLogger(logger)))
	}

	p := platform.New(workspace, repos,
		platform.WithPreferWorkspace(cfg.PreferWorkspace),
		platform.WithLogger(logger),
	)
	if err := p.Load(ctx); err != nil {
		return nil, a.fail("load catalogs", strings.Join(slices.Concat(cfg.Workspace, cfg.Repositories), ", "), err,
			"Check the module.cue and aggregate.cue files named above")
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		platform: p,
		env:      platform.Complete(cfg.Environment.Selector()),
		fs:       a.Fs,
	}, nil
}

// newLogger builds the stderr logger. --verbose forces debug level.
func (a *App) newLogger(level config.LogLevel) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "bundlegraph"})
	lvl, err := log.ParseLevel(level.String())
	if err != nil {
		lvl = log.InfoLevel
	}
	if a.opts.verbose {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// state reads the resolved-state file for the session environment.
func (s *session) state(ctx context.Context, a *App) (state.State, error) {
	if s.cfg.StateFile == "" {
		return nil, &ExitError{Code: ExitUsage, Err: issue.NewErrorContext().
			WithOperation("load resolved state").
			WithSuggestion("Pass --state <file> or set state_file in the config").
			WithIssue(issue.StateFileInvalidId).
			BuildError()}
	}

	st, err := state.FileProvider{Fs: s.fs, Path: s.cfg.StateFile}.Resolve(ctx, s.platform.All(), s.env)
	if err != nil {
		return nil, a.fail("load resolved state", s.cfg.StateFile, err, "Check that the file matches the state schema")
	}
	return st, nil
}

// lookup resolves an "id[@version]" argument against the platform.
func (s *session) lookup(arg string) (*catalog.Module, error) {
	id, ref, _ := strings.Cut(arg, "@")
	m, ok := s.platform.Resolve(id, ref)
	if !ok {
		return nil, &ExitError{Code: ExitResolution, Err: issue.NewErrorContext().
			WithOperation("find module").
			WithResource(arg).
			WithSuggestion("Run 'bundlegraph list' to see known modules").
			WithIssue(issue.ModuleNotFoundId).
			BuildError()}
	}
	return m, nil
}
