// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/invowk/bundlegraph/pkg/diag"

	"github.com/pelletier/go-toml/v2"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatTOML = "toml"
)

// ErrUnknownFormat is returned for --format values other than text, json and toml.
var ErrUnknownFormat = errors.New("unknown output format")

// checkFormat validates a --format value before any work is done.
func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatTOML:
		return nil
	default:
		return &ExitError{Code: ExitUsage, Err: fmt.Errorf("%w %q (valid: text, json, toml)", ErrUnknownFormat, format)}
	}
}

// writeOutput renders view in a structured format, or calls text for the
// human-readable one. TOML documents need a table at the top, so views are
// always structs.
func writeOutput(w io.Writer, format string, view any, text func(io.Writer)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case formatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(view)
	default:
		text(w)
		return nil
	}
}

func diagnosticStrings(diags []diag.Diagnostic) []string {
	if len(diags) == 0 {
		return nil
	}
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.String()
	}
	return out
}

func writeWarnings(w io.Writer, warnings []string) {
	for _, s := range warnings {
		fmt.Fprintln(w, WarningStyle.Render(s))
	}
}
