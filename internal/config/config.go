// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/invowk/bundlegraph/internal/issue"
	"github.com/invowk/bundlegraph/pkg/cueutil"
	"github.com/invowk/bundlegraph/pkg/platform"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "bundlegraph"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "BUNDLEGRAPH"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the bundlegraph configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	return configDirFor(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

func configDirFor(goos string, getenv func(string) string, home func() (string, error)) (string, error) {
	var configDir string

	switch goos {
	case platform.Windows:
		configDir = getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		h, err := home()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(h, "Library", "Application Support")
	default:
		configDir = getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			h, err := home()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(h, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	fsys := opts.fs()
	v := newViper()

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(fsys, opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'bundlegraph config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		candidates := []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		}
		for _, p := range candidates {
			if fileExists(fsys, p) {
				resolvedPath = p
				break
			}
		}
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(fsys, v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Remove duplicate workspace and repository entries").
			WithSuggestion("Use one of debug, info, warn, error for log_level").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// newViper returns a Viper instance seeded with defaults and bound to
// BUNDLEGRAPH_* environment overrides.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("workspace", defaults.Workspace)
	v.SetDefault("repositories", defaults.Repositories)
	v.SetDefault("prefer_workspace", defaults.PreferWorkspace)
	v.SetDefault("state_file", defaults.StateFile)
	v.SetDefault("environment.os", defaults.Environment.OS)
	v.SetDefault("environment.ws", defaults.Environment.WS)
	v.SetDefault("environment.arch", defaults.Environment.Arch)
	v.SetDefault("environment.nl", defaults.Environment.NL)
	v.SetDefault("log_level", string(defaults.LogLevel))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Parsing is manual instead of cueutil.ParseAndDecode: the config decodes to a
// map for Viper, and every field is optional so validation is non-concrete.
func loadCUEIntoViper(fsys afero.Fs, v *viper.Viper, path string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merging keeps defaults and env overrides in effect.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file into dir unless one
// exists. It returns the path of the file.
func CreateDefaultConfig(fsys afero.Fs, dir string) (string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(fsys, cfgPath) {
		return cfgPath, nil
	}

	if err := afero.WriteFile(fsys, cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// bundlegraph configuration file\n\n")

	writeList(&sb, "workspace", cfg.Workspace)
	writeList(&sb, "repositories", cfg.Repositories)
	fmt.Fprintf(&sb, "prefer_workspace: %v\n", cfg.PreferWorkspace)
	if cfg.StateFile != "" {
		fmt.Fprintf(&sb, "state_file: %q\n", cfg.StateFile)
	}
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)

	env := cfg.Environment
	if env != (EnvironmentConfig{}) {
		sb.WriteString("\nenvironment: {\n")
		for _, f := range [...]struct{ k, v string }{{"os", env.OS}, {"ws", env.WS}, {"arch", env.Arch}, {"nl", env.NL}} {
			if f.v != "" {
				fmt.Fprintf(&sb, "\t%s: %q\n", f.k, f.v)
			}
		}
		sb.WriteString("}\n")
	}

	return sb.String()
}

func writeList(sb *strings.Builder, key string, values []string) {
	if len(values) == 0 {
		fmt.Fprintf(sb, "%s: []\n", key)
		return
	}
	fmt.Fprintf(sb, "%s: [\n", key)
	for _, v := range values {
		fmt.Fprintf(sb, "\t%q,\n", v)
	}
	sb.WriteString("]\n")
}
