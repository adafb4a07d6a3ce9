// Package main is the entry point for the pokeme CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flemzord/pokeme/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pokeme",
		Short:         "A service to set up recurring notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		serviceCmd(),
		addCmd(),
		listCmd(),
		detailCmd(),
		searchCmd(),
		removeCmd(),
		toggleSoundCmd(),
		stopCmd(),
		refreshCmd(),
		statusCmd(),
		installCmd(),
		uninstallCmd(),
		mcpCmd(),
		versionCmd(),
		configCmd(),
	)
	return root
}

func params(cmd *cobra.Command) app.Params {
	cfgPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	return app.Params{
		ConfigPath: cfgPath,
		LogLevel:   level,
		Version:    version,
		Commit:     commit,
		Date:       date,
	}
}

// withEnv opens the runtime environment for the duration of fn.
func withEnv(cmd *cobra.Command, fn func(env *app.Env) error) error {
	env, err := app.Open(cmd.Context(), params(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()
	return fn(env)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pokeme %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
