package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"text2cypher/internal/config"
)

func newInitCmd(_ *globalOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config into the project directory",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := dir
			if root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve working directory: %w", err)
				}
				root = wd
			}
			path, err := config.Scaffold(root)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", path)
			fmt.Fprintf(out, "Set %s in the environment or in %s before running eval.\n", config.DefaultAPIKeyEnv, config.EnvFileName)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Project directory (default: current directory)")
	return cmd
}
