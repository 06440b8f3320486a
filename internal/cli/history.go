package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"text2cypher/internal/report"
	"text2cypher/internal/runner"
	"text2cypher/internal/store"
)

type historyOptions struct {
	limit int
	html  string
	run   string
}

func newHistoryCmd(global *globalOptions) *cobra.Command {
	opts := historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.limit < 0 {
				return usagef("--limit must be >= 0")
			}
			p, err := loadProject(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			history, err := p.openStore(ctx)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer history.Close()

			runs, err := history.ListRuns(ctx, opts.limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var detail *runner.RunSummary
			if opts.run != "" {
				summary, err := runDetail(cmd, history, runs, opts.run)
				if err != nil {
					return err
				}
				detail = &summary
			}
			if opts.html != "" {
				if err := writeHTML(cmd, opts.html, runs, detail); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", opts.html)
				return nil
			}
			if detail != nil {
				return report.WriteText(out, *detail, report.TextOptions{})
			}
			return report.WriteHistory(out, runs)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.limit, "limit", 20, "Runs to list, newest first (0 lists all)")
	flags.StringVar(&opts.html, "html", "", "Write an HTML report to this path")
	flags.StringVar(&opts.run, "run", "", "Show per-item results of one run")
	return cmd
}

func runDetail(cmd *cobra.Command, history *store.Store, runs []store.Run, runID string) (runner.RunSummary, error) {
	records, err := history.RunRecords(cmd.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		return runner.RunSummary{}, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return runner.RunSummary{}, err
	}
	configID := ""
	for _, run := range runs {
		if run.RunID == runID {
			configID = run.ConfigID
		}
	}
	if configID == "" && len(records) > 0 {
		configID = records[0].ConfigID
	}
	return runner.Summarize(configID, records), nil
}

func writeHTML(cmd *cobra.Command, path string, runs []store.Run, detail *runner.RunSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.Page(runs, detail).Render(cmd.Context(), file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
