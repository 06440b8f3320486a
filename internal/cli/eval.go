package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"text2cypher/internal/metrics"
	"text2cypher/internal/question"
	"text2cypher/internal/report"
	"text2cypher/internal/runner"
	"text2cypher/internal/store"
	"text2cypher/internal/ui/live"
)

type evalOptions struct {
	generator   string
	concurrency int
	only        []string
	ui          string
	verbose     bool
	metricsAddr string
	jsonPath    string
	noStore     bool
	maxFailures int
}

func newEvalCmd(global *globalOptions) *cobra.Command {
	opts := evalOptions{}
	cmd := &cobra.Command{
		Use:   "eval <benchmark>",
		Short: "Run one evaluation over a benchmark",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), global, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.generator, "generator", "", "Generator config file (default: generator.path from config)")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Items evaluated in parallel (default: eval.concurrency)")
	flags.StringSliceVar(&opts.only, "only", nil, "Comma-separated question ids to evaluate")
	flags.StringVar(&opts.ui, "ui", "auto", "UI mode (auto|live|plain)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Print per-item progress lines")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	flags.StringVar(&opts.jsonPath, "json", "", "Also write the run summary as JSON to this path")
	flags.BoolVar(&opts.noStore, "no-store", false, "Do not record the run in the history store")
	flags.IntVar(&opts.maxFailures, "max-failures", 20, "Failures listed in the report (0 lists all)")
	return cmd
}

func runEval(ctx context.Context, stdout, stderr io.Writer, global *globalOptions, opts evalOptions, benchmark string) error {
	if opts.concurrency < 0 {
		return usagef("--concurrency must be >= 0")
	}
	decision, err := resolveUIMode(opts.ui, opts.verbose, global.noColor, stdout)
	if err != nil {
		return err
	}
	p, err := loadProject(global, stderr)
	if err != nil {
		return err
	}
	items, err := loadItems(benchmark, opts.only)
	if err != nil {
		return err
	}
	genCfg, err := p.generatorConfig(opts.generator)
	if err != nil {
		return err
	}
	if decision.warning != "" {
		warnf(stderr, "%s", decision.warning)
	}

	svc, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer svc.close()

	m := metrics.New(prometheus.NewRegistry())
	addr := opts.metricsAddr
	if addr == "" {
		addr = p.cfg.Metrics.Addr
	}
	if addr != "" {
		stopMetrics, err := serveMetrics(addr, m, p.logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	evaluator := p.evaluator(svc, m)
	if opts.concurrency > 0 {
		evaluator.Concurrency = opts.concurrency
	}
	if opts.verbose {
		evaluator.Verbose = stdout
		evaluator.NoColor = decision.noColor
	}
	tracker := &runTracker{}
	var ui *live.Controller
	if decision.useLive {
		ui = live.Start(stdout, live.Options{NoColor: decision.noColor})
		tracker.next = ui
	}
	evaluator.Observer = tracker

	summary, err := evaluator.Evaluate(ctx, items, genCfg)
	if ui != nil {
		ui.Close()
		ui.Wait()
	}
	if err != nil {
		if errors.Is(err, runner.ErrRunCancelled) {
			fmt.Fprintln(stderr, "Run cancelled; partial results discarded.")
		}
		return fmt.Errorf("evaluation failed: %w", err)
	}

	runID, started := tracker.last()
	fmt.Fprintf(stdout, "Run %s\n", runID)
	if err := report.WriteText(stdout, summary, report.TextOptions{MaxFailures: opts.maxFailures}); err != nil {
		return err
	}
	if opts.jsonPath != "" {
		if err := report.WriteSummary(opts.jsonPath, summary); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if opts.noStore {
		return nil
	}
	return recordRun(ctx, p, store.RunInput{
		RunID:      runID,
		Benchmark:  filepath.Base(benchmark),
		Config:     genCfg,
		Summary:    summary,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
}

func loadItems(benchmark string, only []string) ([]question.Item, error) {
	items, err := question.Load(benchmark)
	if err != nil {
		return nil, fmt.Errorf("load benchmark %s:\n%w", benchmark, err)
	}
	items = question.Filter(items, only)
	if len(items) == 0 {
		return nil, usagef("no benchmark items match --only %v", only)
	}
	return items, nil
}

func recordRun(ctx context.Context, p *project, input store.RunInput) error {
	history, err := p.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer history.Close()
	if err := history.SaveRun(ctx, input); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	p.logger.Info("run recorded", "run_id", input.RunID, "config_id", input.Summary.ConfigID)
	return nil
}

// runTracker remembers the latest run id and forwards events.
type runTracker struct {
	next runner.RunObserver

	mu      sync.Mutex
	runID   string
	started time.Time
}

func (t *runTracker) OnRunStart(runID string, configID string, total int) {
	t.mu.Lock()
	t.runID = runID
	t.started = time.Now()
	t.mu.Unlock()
	if t.next != nil {
		t.next.OnRunStart(runID, configID, total)
	}
}

func (t *runTracker) OnItemEvent(event runner.ItemEvent) {
	if t.next != nil {
		t.next.OnItemEvent(event)
	}
}

func (t *runTracker) OnRunEnd(summary runner.RunSummary) {
	if t.next != nil {
		t.next.OnRunEnd(summary)
	}
}

func (t *runTracker) last() (string, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runID, t.started
}

// serveMetrics exposes m on addr until the returned stop func is called.
func serveMetrics(addr string, m *metrics.Metrics, logger *slog.Logger) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", listener.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}

var _ runner.RunObserver = (*runTracker)(nil)
