// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from the file named by --config, else from
// config.cue in the platform config directory ($XDG_CONFIG_HOME/bundlegraph
// on Linux, ~/Library/Application Support/bundlegraph on macOS,
// %APPDATA%\bundlegraph on Windows), else from ./config.cue. Without a file
// the defaults apply. Environment variables prefixed with BUNDLEGRAPH_
// override file values (BUNDLEGRAPH_ENVIRONMENT_OS=win32).
//
// Files are validated against the embedded #Config schema (config_schema.cue)
// before being merged into Viper.
package config
