// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/invowk/bundlegraph/internal/issue"
	"github.com/invowk/bundlegraph/pkg/aggregate"
	"github.com/invowk/bundlegraph/pkg/catalog"

	"github.com/spf13/cobra"
)

type (
	memberView struct {
		Module string `json:"module" toml:"module"`
		Ref    string `json:"ref" toml:"ref"`
		Origin string `json:"origin" toml:"origin"`
	}

	resolvedView struct {
		Aggregate string       `json:"aggregate" toml:"aggregate"`
		Members   []memberView `json:"members" toml:"members"`
		Includes  []string     `json:"includes,omitempty" toml:"includes,omitempty"`
	}

	aggregateResultView struct {
		Environment catalog.Environment `json:"environment" toml:"environment"`
		Aggregates  []resolvedView      `json:"aggregates" toml:"aggregates"`
		Warnings    []string            `json:"warnings,omitempty" toml:"warnings,omitempty"`
	}
)

func newAggregateCommand(app *App) *cobra.Command {
	var (
		format    string
		recursive bool
		env       catalog.Environment
	)

	cmd := &cobra.Command{
		Use:   "aggregate <id[@version]>",
		Short: "Resolve an aggregate for a target environment",
		Long: `Resolve the members and nested includes of an aggregate whose selectors
match the target environment. Members are listed providers first.

Environment components default to the config, then to the running system.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}

			id, ref, _ := strings.Cut(args[0], "@")
			desc, ok := s.platform.ResolveAggregate(id, ref)
			if !ok {
				return &ExitError{Code: ExitResolution, Err: issue.NewErrorContext().
					WithOperation("find aggregate").
					WithResource(args[0]).
					WithSuggestion("Run 'bundlegraph list --aggregates' to see known aggregates").
					WithIssue(issue.AggregateMemberMissingId).
					BuildError()}
			}

			target := overlayEnvironment(s.env, env)
			resolver := aggregate.New(s.platform, aggregate.WithLogger(s.logger))
			view := aggregateResultView{Environment: target}

			collect := func(r *aggregate.Resolved) error {
				view.Aggregates = append(view.Aggregates, newResolvedView(r))
				view.Warnings = append(view.Warnings, diagnosticStrings(r.Diagnostics)...)
				return nil
			}
			if recursive {
				diags, werr := resolver.Walk(desc, target, collect)
				view.Warnings = append(view.Warnings, diagnosticStrings(diags)...)
				err = werr
			} else {
				var res *aggregate.Resolved
				if res, err = resolver.Resolve(desc, target); err == nil {
					err = collect(res)
				}
			}
			if err != nil {
				return app.fail("resolve aggregate", desc.Key().String()+" for "+target.String(), err)
			}

			return writeOutput(app.stdout, format, view, func(w io.Writer) {
				writeAggregate(w, view)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&format, "format", formatText, "output format: text, json or toml")
	flags.BoolVarP(&recursive, "recursive", "r", false, "also resolve nested includes, transitively")
	flags.StringVar(&env.OS, "os", "", "target operating system (e.g. linux, win32, macosx)")
	flags.StringVar(&env.WS, "ws", "", "target windowing system (e.g. gtk, win32, cocoa)")
	flags.StringVar(&env.Arch, "arch", "", "target architecture (e.g. x86_64, aarch64)")
	flags.StringVar(&env.NL, "nl", "", "target locale (e.g. en_US)")
	return cmd
}

// overlayEnvironment replaces the components of base set in override.
func overlayEnvironment(base, override catalog.Environment) catalog.Environment {
	if override.OS != "" {
		base.OS = override.OS
	}
	if override.WS != "" {
		base.WS = override.WS
	}
	if override.Arch != "" {
		base.Arch = override.Arch
	}
	if override.NL != "" {
		base.NL = override.NL
	}
	return base
}

func newResolvedView(r *aggregate.Resolved) resolvedView {
	v := resolvedView{Aggregate: r.Aggregate.Key().String(), Members: make([]memberView, 0, len(r.Members))}
	for _, m := range r.Members {
		v.Members = append(v.Members, memberView{
			Module: m.Module.Key().String(),
			Ref:    m.Ref.String(),
			Origin: m.Module.Origin.Kind().String(),
		})
	}
	for _, inc := range r.Includes {
		v.Includes = append(v.Includes, inc.Aggregate.Key().String())
	}
	return v
}

func writeAggregate(w io.Writer, view aggregateResultView) {
	for _, a := range view.Aggregates {
		fmt.Fprintln(w, TitleStyle.Render(a.Aggregate)+SubtitleStyle.Render(" for "+view.Environment.String()))
		for _, m := range a.Members {
			fmt.Fprintf(w, "  %s %s\n", KeyStyle.Render(m.Module), SubtitleStyle.Render("["+m.Origin+"]"))
		}
		for _, inc := range a.Includes {
			fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("includes"), KeyStyle.Render(inc))
		}
	}
	writeWarnings(w, view.Warnings)
}
