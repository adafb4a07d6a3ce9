package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/flemzord/pokeme/internal/control"
	"github.com/flemzord/pokeme/internal/display"
	"github.com/flemzord/pokeme/internal/mcpserver"
	"github.com/flemzord/pokeme/internal/service"
	"github.com/flemzord/pokeme/pkg/app"
)

func serviceCmd() *cobra.Command {
	var background bool
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Start the background notification service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			p := params(cmd)

			if background {
				return withEnv(cmd, func(env *app.Env) error {
					var args []string
					if env.ConfigPath != "" {
						args = append(args, "--config", env.ConfigPath)
					}
					if p.LogLevel != "" {
						args = append(args, "--log-level", p.LogLevel)
					}
					pid, err := app.Detach(cmd.Context(), env.Session, env.Config.Log.File, args...)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Service started in background (PID: %d)\n", pid)
					fmt.Fprintln(out, "Use 'pokeme stop' to stop the service.")
					return nil
				})
			}

			fmt.Fprintln(out, "Starting Poke Me notification service...")
			fmt.Fprintln(out, "Press Ctrl+C to stop or use 'pokeme stop' from another terminal.")
			return app.RunDaemon(cmd.Context(), p)
		},
	}
	cmd.Flags().BoolVarP(&background, "daemon", "d", false, "Detach and run in the background")
	return cmd
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running notification service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(env *app.Env) error {
				var s *spinner.Spinner
				if stderrIsTerminal() {
					s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
					s.Suffix = " Stopping service..."
					s.Start()
				}
				res, err := env.Controller().Stop(cmd.Context())
				if s != nil {
					s.Stop()
				}
				if err != nil {
					return err
				}
				if res.Forced {
					fmt.Fprintf(cmd.OutOrStdout(), "Service (PID: %d) did not exit in time and was terminated\n", res.PID)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Service stopped successfully")
				return nil
			})
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the service to pick up any job changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(env *app.Env) error {
				if err := env.Controller().Refresh(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Service refresh signal sent successfully")
				return nil
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the service is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(env *app.Env) error {
				st, err := env.Controller().Status(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch st.State {
				case control.StateRunning:
					fmt.Fprintf(out, "Service is running (PID: %d) with %s\n", st.PID, display.Count(st.Jobs))
				case control.StateStale:
					fmt.Fprintf(out, "Service is not running (stale PID file), %s stored\n", display.Count(st.Jobs))
				default:
					fmt.Fprintf(out, "Service is not running, %s stored\n", display.Count(st.Jobs))
				}

				if svc, err := service.New(service.Options{ConfigPath: env.ConfigPath, User: true}); err == nil {
					if word, err := service.Status(svc); err == nil {
						fmt.Fprintf(out, "Service manager: %s\n", word)
					}
				}
				return nil
			})
		},
	}
}

func installCmd() *cobra.Command {
	return serviceControlCmd(service.ActionInstall, "Install pokeme as a user service")
}

func uninstallCmd() *cobra.Command {
	return serviceControlCmd(service.ActionUninstall, "Remove the pokeme user service")
}

func serviceControlCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(env *app.Env) error {
				svc, err := service.New(service.Options{ConfigPath: env.ConfigPath, User: true})
				if err != nil {
					return err
				}
				if err := service.Control(svc, action); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Service %s completed\n", action)
				return nil
			})
		},
	}
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve job management tools over MCP (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(env *app.Env) error {
				return mcpserver.New(env.Controller(), version).ServeStdio()
			})
		},
	}
}
