package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/edwinbf09/daily-activities/cmd/agenda/ui"
	"github.com/edwinbf09/daily-activities/internal/activity"
	"github.com/edwinbf09/daily-activities/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		outDir string
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "report [category]",
		Short: "Save a PDF report, complete or for one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var category activity.Category
			if len(args) == 1 {
				c, err := activity.ParseCategory(args[0])
				if err != nil {
					return err
				}
				category = c
			}

			doc, err := a.report(ctx, category, local)
			if errors.Is(err, report.ErrNoData) {
				return fmt.Errorf("nothing to report: no activities%s", inCategory(category))
			}
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", outDir, err)
			}
			path := filepath.Join(outDir, doc.Filename)
			if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}

			fmt.Fprintln(a.stdout, ui.Success("Report saved to ")+path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to save the PDF in")
	cmd.Flags().BoolVar(&local, "local", false, "Render from the local cache instead of the server")
	return cmd
}

// report downloads the document, or renders it from the cache when offline
// or when the server cannot be reached.
func (a *app) report(ctx context.Context, category activity.Category, local bool) (*report.Document, error) {
	if !a.offline && !local {
		doc, err := a.client.Report(ctx, category)
		if err == nil || !unreachable(err) {
			return doc, explain(err)
		}
		a.warn("server unreachable, rendering from cached activities")
	}

	gen := report.NewGenerator()
	if category == "" {
		return gen.Complete(a.cache.Activities())
	}
	return gen.Category(category, a.cache.Activities())
}

func inCategory(c activity.Category) string {
	if c == "" {
		return ""
	}
	return " in " + c.Name()
}
