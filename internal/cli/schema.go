package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSchemaCmd(global *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the pruned graph schema used in prompts",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "yaml" {
				return usagef("invalid --format %q (expected json|yaml)", format)
			}
			p, err := loadProject(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			engine, err := p.openEngine(ctx, os.Getenv(p.cfg.Graph.PasswordEnv))
			if err != nil {
				return err
			}
			defer closeEngine(engine)
			descriptor, err := p.schemaProvider(engine).DescribeSchema(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == "yaml" {
				encoder := yaml.NewEncoder(out)
				encoder.SetIndent(2)
				if err := encoder.Encode(descriptor); err != nil {
					return fmt.Errorf("encode schema: %w", err)
				}
				return encoder.Close()
			}
			data, err := json.MarshalIndent(descriptor, "", "  ")
			if err != nil {
				return fmt.Errorf("encode schema: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json|yaml)")
	return cmd
}
