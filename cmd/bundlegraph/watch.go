// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/invowk/bundlegraph/internal/watch"
	"github.com/invowk/bundlegraph/pkg/platform"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/cobra"
)

func newWatchCommand(app *App) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompose the platform whenever a descriptor changes",
		Long: `Watch every workspace project and repository for module.cue and
aggregate.cue changes. After each burst of edits the platform is refreshed
and the modules that appeared or disappeared are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}

			w, err := watch.New(watch.Config{
				Roots:    slices.Concat(s.cfg.Workspace, s.cfg.Repositories),
				Debounce: debounce,
				Logger:   s.logger,
				OnChange: func(ctx context.Context, changed []string) error {
					return refreshAndReport(ctx, app.stdout, s.platform, changed)
				},
			})
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}

			fmt.Fprintf(app.stdout, "%s %s\n", TitleStyle.Render("Watching"),
				SubtitleStyle.Render(fmt.Sprintf("%d roots, %d modules", len(w.Roots()), len(s.platform.All()))))
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before refreshing")
	return cmd
}

// refreshAndReport rebuilds p and writes the module keys that changed.
// A failed rebuild is reported and the watch continues.
func refreshAndReport(ctx context.Context, w io.Writer, p *platform.Platform, changed []string) error {
	before := moduleKeys(p)
	if err := p.Refresh(ctx); err != nil {
		fmt.Fprintf(w, "%s %v\n", ErrorStyle.Render("refresh failed:"), err)
		return nil
	}
	after := moduleKeys(p)

	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Refreshed"), SubtitleStyle.Render(fmt.Sprintf("(%d files changed)", len(changed))))
	added, removed := after.Difference(before).ToSlice(), before.Difference(after).ToSlice()
	slices.Sort(added)
	slices.Sort(removed)
	for _, k := range added {
		fmt.Fprintf(w, "  %s %s\n", SuccessStyle.Render("+"), KeyStyle.Render(k))
	}
	for _, k := range removed {
		fmt.Fprintf(w, "  %s %s\n", ErrorStyle.Render("-"), KeyStyle.Render(k))
	}
	writeWarnings(w, diagnosticStrings(p.Diagnostics()))
	return nil
}

func moduleKeys(p *platform.Platform) mapset.Set[string] {
	keys := mapset.NewThreadUnsafeSet[string]()
	for _, m := range p.All() {
		keys.Add(m.Key().String())
	}
	return keys
}
