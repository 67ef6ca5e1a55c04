package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/capburn/internal/config"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCommand()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "capburn",
		Short:         "Transcribe videos and burn captions into them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to capburn.toml (default ./capburn.toml)")

	root.AddCommand(
		newServeCommand(&configPath),
		newBurnCommand(&configPath),
		newCheckCommand(&configPath),
		newInitConfigCommand(),
	)
	return root
}

func newInitConfigCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a sample capburn.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "path", "p", "capburn.toml", "Destination for the configuration file")
	return cmd
}
