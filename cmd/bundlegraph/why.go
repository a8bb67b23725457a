// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/invowk/bundlegraph/pkg/rootcause"

	"github.com/spf13/cobra"
)

type (
	stepView struct {
		Module  string `json:"module" toml:"module"`
		Because string `json:"because,omitempty" toml:"because,omitempty"`
	}

	whyView struct {
		Module   string     `json:"module" toml:"module"`
		Resolved bool       `json:"resolved" toml:"resolved"`
		Cause    string     `json:"cause,omitempty" toml:"cause,omitempty"`
		Chain    []stepView `json:"chain,omitempty" toml:"chain,omitempty"`
	}
)

func newWhyCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "why <id[@version]>",
		Short: "Explain why a module is unresolved",
		Long: `Follow the unsatisfied constraints of an unresolved module through the
other unresolved modules that would have satisfied them, and report the
module at the end of the chain: the root cause.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			m, err := s.lookup(args[0])
			if err != nil {
				return err
			}
			st, err := s.state(cmd.Context(), app)
			if err != nil {
				return err
			}

			view := whyView{Module: m.Key().String(), Resolved: true}
			if ms, ok := st.Lookup(m.Key()); !ok || !ms.Resolved {
				view.Resolved = false
				chain := rootcause.New(s.platform, rootcause.WithLogger(s.logger)).Chain(m, st.Unresolved())
				for _, step := range chain {
					sv := stepView{Module: step.Module.Key().String()}
					if step.Because != nil {
						sv.Because = step.Because.String()
					}
					view.Chain = append(view.Chain, sv)
				}
				view.Cause = view.Chain[len(view.Chain)-1].Module
			}

			return writeOutput(app.stdout, format, view, func(w io.Writer) {
				writeWhy(w, view)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "output format: text, json or toml")
	return cmd
}

func writeWhy(w io.Writer, view whyView) {
	if view.Resolved {
		fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(view.Module), SuccessStyle.Render("is resolved"))
		return
	}
	for i, step := range view.Chain {
		if i == 0 {
			fmt.Fprintln(w, KeyStyle.Render(step.Module))
			continue
		}
		fmt.Fprintf(w, "%*s%s %s %s\n", 2*i, "", SubtitleStyle.Render("needs"), KeyStyle.Render(step.Module), SubtitleStyle.Render("for "+step.Because))
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("root cause:"), KeyStyle.Render(view.Cause))
}
