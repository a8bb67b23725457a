// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/invowk/bundlegraph/pkg/catalog"

	"github.com/spf13/cobra"
)

type (
	moduleView struct {
		Key     string   `json:"key" toml:"key"`
		Origin  string   `json:"origin" toml:"origin"`
		Host    string   `json:"host,omitempty" toml:"host,omitempty"`
		Exports []string `json:"exports,omitempty" toml:"exports,omitempty"`
	}

	aggregateView struct {
		Key      string `json:"key" toml:"key"`
		Label    string `json:"label,omitempty" toml:"label,omitempty"`
		Members  int    `json:"members" toml:"members"`
		Includes int    `json:"includes" toml:"includes"`
	}

	listView struct {
		Modules    []moduleView    `json:"modules,omitempty" toml:"modules,omitempty"`
		Aggregates []aggregateView `json:"aggregates,omitempty" toml:"aggregates,omitempty"`
		Warnings   []string        `json:"warnings,omitempty" toml:"warnings,omitempty"`
	}
)

func newListCommand(app *App) *cobra.Command {
	var (
		aggregates bool
		format     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the modules of the composed platform",
		Long: `List one entry per module id and version. When a workspace project and a
repository both provide the same key, only the preferred one is listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}

			view := listView{Warnings: diagnosticStrings(s.platform.Diagnostics())}
			if aggregates {
				for _, a := range s.platform.Aggregates() {
					view.Aggregates = append(view.Aggregates, aggregateView{
						Key: a.Key().String(), Label: a.Label,
						Members: len(a.Members), Includes: len(a.Includes),
					})
				}
			} else {
				for _, m := range s.platform.All() {
					view.Modules = append(view.Modules, newModuleView(m))
				}
			}

			return writeOutput(app.stdout, format, view, func(w io.Writer) {
				writeList(w, view)
			})
		},
	}

	cmd.Flags().BoolVar(&aggregates, "aggregates", false, "list aggregates instead of modules")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text, json or toml")
	return cmd
}

func newModuleView(m *catalog.Module) moduleView {
	v := moduleView{Key: m.Key().String(), Origin: m.Origin.Kind().String(), Exports: m.Exports}
	if m.Host != nil {
		v.Host = m.Host.ID
	}
	return v
}

func writeList(w io.Writer, view listView) {
	if len(view.Modules) == 0 && len(view.Aggregates) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("(nothing found)"))
	}
	for _, m := range view.Modules {
		line := fmt.Sprintf("%s %s", KeyStyle.Render(m.Key), SubtitleStyle.Render("["+m.Origin+"]"))
		if m.Host != "" {
			line += SubtitleStyle.Render(" fragment of " + m.Host)
		}
		fmt.Fprintln(w, line)
	}
	for _, a := range view.Aggregates {
		line := KeyStyle.Render(a.Key)
		if a.Label != "" {
			line += " " + a.Label
		}
		fmt.Fprintf(w, "%s %s\n", line, SubtitleStyle.Render(fmt.Sprintf("(%d members, %d includes)", a.Members, a.Includes)))
	}
	writeWarnings(w, view.Warnings)
}
