package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newValidateCmd(global *globalOptions) *cobra.Command {
	var generatorPath string
	cmd := &cobra.Command{
		Use:   "validate [benchmark]",
		Short: "Validate config, generator config and an optional benchmark",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), cmd.ErrOrStderr(), global, generatorPath, args)
		},
	}
	cmd.Flags().StringVar(&generatorPath, "generator", "", "Generator config file (default: generator.path from config)")
	return cmd
}

func runValidate(stdout, stderr io.Writer, global *globalOptions, generatorPath string, args []string) error {
	p, err := loadProject(global, stderr)
	if err != nil {
		return fmt.Errorf("validation failed:\n%w", err)
	}
	genCfg, err := p.generatorConfig(generatorPath)
	if err != nil {
		return fmt.Errorf("validation failed:\n%w", err)
	}
	fmt.Fprintln(stdout, "Config OK")
	fmt.Fprintf(stdout, "Generator OK (%s)\n", genCfg.ID())
	if len(args) == 0 {
		return nil
	}
	items, err := loadItems(args[0], nil)
	if err != nil {
		return fmt.Errorf("validation failed:\n%w", err)
	}
	fmt.Fprintf(stdout, "Benchmark OK (%d questions)\n", len(items))
	return nil
}
