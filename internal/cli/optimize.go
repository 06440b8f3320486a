package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"text2cypher/internal/config"
	"text2cypher/internal/generate"
	"text2cypher/internal/metrics"
	"text2cypher/internal/optimize"
	"text2cypher/internal/report"
	"text2cypher/internal/store"
)

type optimizeOptions struct {
	generator   string
	trials      int
	demos       int
	seed        uint64
	out         string
	concurrency int
	only        []string
	noStore     bool
}

func newOptimizeCmd(global *globalOptions) *cobra.Command {
	opts := optimizeOptions{}
	cmd := &cobra.Command{
		Use:   "optimize <benchmark>",
		Short: "Search generator configs and keep the most accurate one",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), global, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.generator, "generator", "", "Initial generator config (default: generator.path from config)")
	flags.IntVar(&opts.trials, "trials", 8, "Maximum number of trials")
	flags.IntVar(&opts.demos, "demos", 3, "Few-shot exemplars per proposal")
	flags.Uint64Var(&opts.seed, "seed", 1, "Proposal seed")
	flags.StringVar(&opts.out, "out", "", "Write the best generator config here (default: generator.path from config)")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Items evaluated in parallel (default: eval.concurrency)")
	flags.StringSliceVar(&opts.only, "only", nil, "Comma-separated question ids to optimize over")
	flags.BoolVar(&opts.noStore, "no-store", false, "Do not record trials in the history store")
	return cmd
}

func runOptimize(ctx context.Context, stdout, stderr io.Writer, global *globalOptions, opts optimizeOptions, benchmark string) error {
	if opts.trials < 1 {
		return usagef("--trials must be >= 1")
	}
	if opts.demos < 1 {
		return usagef("--demos must be >= 1")
	}
	if opts.concurrency < 0 {
		return usagef("--concurrency must be >= 0")
	}
	p, err := loadProject(global, stderr)
	if err != nil {
		return err
	}
	items, err := loadItems(benchmark, opts.only)
	if err != nil {
		return err
	}
	initial, err := p.generatorConfig(opts.generator)
	if err != nil {
		return err
	}
	outPath := opts.out
	if outPath == "" {
		outPath = p.cfg.Generator.Path
	}
	if outPath == "" {
		outPath = config.ResolvePath(p.root, config.DefaultGeneratorPath)
	}

	svc, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer svc.close()

	var history *store.Store
	if !opts.noStore {
		history, err = p.openStore(ctx)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer history.Close()
	}

	evaluator := p.evaluator(svc, metrics.New(prometheus.NewRegistry()))
	if opts.concurrency > 0 {
		evaluator.Concurrency = opts.concurrency
	}
	tracker := &runTracker{}
	evaluator.Observer = tracker

	var recordErr error
	result, err := optimize.Run(ctx, evaluator, items, initial, optimize.BootstrapProposer{
		Items: items,
		Demos: opts.demos,
		Seed:  opts.seed,
	}, optimize.Options{
		MaxTrials: opts.trials,
		Logger:    p.logger,
		OnTrial: func(trial optimize.Trial) {
			runID, started := tracker.last()
			fmt.Fprintf(stdout, "Trial %d  %s  accuracy %s%%  (run %s)\n",
				trial.Index, trial.Config.ID(), report.FormatPassRate(trial.Summary.Accuracy), runID)
			if history == nil || recordErr != nil {
				return
			}
			recordErr = history.SaveRun(ctx, store.RunInput{
				RunID:      runID,
				Benchmark:  filepath.Base(benchmark),
				Config:     trial.Config,
				Summary:    trial.Summary,
				StartedAt:  started,
				FinishedAt: time.Now(),
			})
			if recordErr != nil {
				p.logger.Warn("trial not recorded", "run_id", runID, "error", recordErr)
			}
		},
	})
	if len(result.Trials) == 0 {
		if errors.Is(err, optimize.ErrNoTrials) || err == nil {
			return errors.New("optimization produced no trials")
		}
		return fmt.Errorf("optimization failed: %w", err)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Optimization stopped after %d trial(s): %v\n", len(result.Trials), err)
	}

	best := result.Best
	if err := generate.WriteConfig(outPath, best.Config); err != nil {
		return fmt.Errorf("write best config: %w", err)
	}
	fmt.Fprintf(stdout, "\nBest: trial %d  %s  accuracy %s%%\n", best.Index, best.Config.ID(), report.FormatPassRate(best.Summary.Accuracy))
	fmt.Fprintf(stdout, "Wrote %s\n", outPath)
	if recordErr != nil {
		return fmt.Errorf("record trials: %w", recordErr)
	}
	return err
}
