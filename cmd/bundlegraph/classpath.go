// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/closure"
	"github.com/invowk/bundlegraph/pkg/content"

	"github.com/spf13/cobra"
)

type (
	dependencyView struct {
		Host      string   `json:"host" toml:"host"`
		Fragments []string `json:"fragments,omitempty" toml:"fragments,omitempty"`
		// Visible is meaningful only when Restricted is set.
		Visible    []string        `json:"visible,omitempty" toml:"visible,omitempty"`
		Restricted bool            `json:"restricted" toml:"restricted"`
		Required   bool            `json:"required" toml:"required"`
		Entries    []content.Entry `json:"entries,omitempty" toml:"entries,omitempty"`
	}

	classpathView struct {
		Root         string           `json:"root" toml:"root"`
		Dependencies []dependencyView `json:"dependencies" toml:"dependencies"`
		Warnings     []string         `json:"warnings,omitempty" toml:"warnings,omitempty"`
	}
)

func newClasspathCommand(app *App) *cobra.Command {
	var (
		format  string
		sources bool
	)

	cmd := &cobra.Command{
		Use:   "classpath <id[@version]>",
		Short: "Compute the classpath of a module",
		Long: `Compute the classpath of a module from the resolved-state file.

The root module's own host and fragments are listed first and are fully
visible. Every other dependency lists the packages visible through it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			root, err := s.lookup(args[0])
			if err != nil {
				return err
			}
			st, err := s.state(cmd.Context(), app)
			if err != nil {
				return err
			}

			resolver := closure.New(s.platform, st,
				closure.WithLogger(s.logger),
				closure.WithAccessor(content.OriginAccessor{IncludeSources: sources}),
			)
			res, err := resolver.ResolveClasspath(root)
			if err != nil {
				return app.fail("resolve classpath", root.Key().String(), err,
					"Run 'bundlegraph why "+root.Key().String()+"' to find the blocking module")
			}

			view := newClasspathView(res)
			return writeOutput(app.stdout, format, view, func(w io.Writer) {
				writeClasspath(w, view)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "output format: text, json or toml")
	cmd.Flags().BoolVar(&sources, "sources", false, "list workspace source roots after output roots")
	return cmd
}

func newClasspathView(res *closure.Result) classpathView {
	view := classpathView{
		Root:         res.Root.Key().String(),
		Dependencies: make([]dependencyView, 0, len(res.Dependencies)),
		Warnings:     diagnosticStrings(res.Diagnostics),
	}
	for _, d := range res.Dependencies {
		view.Dependencies = append(view.Dependencies, dependencyView{
			Host:       d.Host.Key().String(),
			Fragments:  keys(d.Fragments),
			Visible:    d.Visible,
			Restricted: d.Restricted(),
			Required:   d.Required,
			Entries:    d.Entries,
		})
	}
	return view
}

func keys(modules []*catalog.Module) []string {
	if len(modules) == 0 {
		return nil
	}
	out := make([]string, len(modules))
	for i, m := range modules {
		out[i] = m.Key().String()
	}
	return out
}

func writeClasspath(w io.Writer, view classpathView) {
	fmt.Fprintln(w, TitleStyle.Render("Classpath of "+view.Root))
	for _, d := range view.Dependencies {
		line := KeyStyle.Render(d.Host)
		if len(d.Fragments) > 0 {
			line += SubtitleStyle.Render(" + " + strings.Join(d.Fragments, ", "))
		}
		switch {
		case !d.Restricted:
			line += " " + SuccessStyle.Render("(all)")
		case len(d.Visible) == 0:
			line += " " + SubtitleStyle.Render("(nothing visible)")
		default:
			line += " " + strings.Join(d.Visible, ", ")
		}
		fmt.Fprintln(w, line)
		for _, e := range d.Entries {
			fmt.Fprintf(w, "    %s %s\n", e.Path, SubtitleStyle.Render(string(e.Kind)))
		}
	}
	writeWarnings(w, view.Warnings)
}
