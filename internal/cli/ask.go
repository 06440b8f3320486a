package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"text2cypher/internal/generate"
	"text2cypher/internal/report"
)

type askOptions struct {
	generator string
	noAnswer  bool
}

func newAskCmd(global *globalOptions) *cobra.Command {
	opts := askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Generate and run a query for one question, then answer it",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), global, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.generator, "generator", "", "Generator config file (default: generator.path from config)")
	cmd.Flags().BoolVar(&opts.noAnswer, "no-answer", false, "Skip the natural-language answer")
	return cmd
}

func runAsk(ctx context.Context, stdout, stderr io.Writer, global *globalOptions, opts askOptions, text string) error {
	p, err := loadProject(global, stderr)
	if err != nil {
		return err
	}
	genCfg, err := p.generatorConfig(opts.generator)
	if err != nil {
		return err
	}
	svc, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer svc.close()

	descriptor, err := svc.schema.DescribeSchema(ctx)
	if err != nil {
		return err
	}
	candidate, err := svc.generator.Generate(ctx, text, descriptor, genCfg)
	if err != nil {
		return fmt.Errorf("generate query: %w", err)
	}
	fmt.Fprintf(stdout, "Query:\n  %s\n\n", candidate.Query)

	outcome, err := svc.executor.Execute(ctx, candidate.Query)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}
	if !outcome.OK() {
		return fmt.Errorf("query failed (%s): %s", outcome.Status, outcome.Message)
	}
	if err := report.WriteRows(stdout, outcome.Rows); err != nil {
		return err
	}
	if opts.noAnswer {
		return nil
	}
	answer, err := generate.Answerer{Client: svc.client, Logger: p.logger}.Answer(ctx, text, candidate.Query, outcome.Rows)
	if err != nil {
		return fmt.Errorf("answer question: %w", err)
	}
	fmt.Fprintf(stdout, "\nAnswer:\n  %s\n", answer)
	return nil
}
