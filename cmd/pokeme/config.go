package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flemzord/pokeme/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := cfg.ResolvePaths(); err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration OK")
			fmt.Fprintf(out, "  database: %s\n", cfg.Database.Path)
			fmt.Fprintf(out, "  run dir:  %s\n", cfg.Daemon.RunDir)
			fmt.Fprintf(out, "  notifier: %s\n", cfg.Notifier.Backend)
			return nil
		},
	})
	return cmd
}
