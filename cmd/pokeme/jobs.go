package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/flemzord/pokeme/internal/control"
	"github.com/flemzord/pokeme/internal/cron"
	"github.com/flemzord/pokeme/internal/display"
	"github.com/flemzord/pokeme/pkg/app"
)

func addCmd() *cobra.Command {
	var (
		sound       bool
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "add <name> <cron> [message]",
		Short: "Add a new scheduled notification job",
		Long: `Add a new scheduled notification job.

The cron expression has six fields: ` + cron.Format + `.
Example: pokeme add standup "0 30 9 * * MON-FRI" "Daily standup"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return cobra.MaximumNArgs(3)(cmd, args)
			}
			return cobra.RangeArgs(2, 3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := control.AddRequest{SoundEnabled: sound}
			if len(args) > 0 {
				req.Name = args[0]
			}
			if len(args) > 1 {
				req.Schedule = args[1]
			}
			if len(args) > 2 {
				req.Message = args[2]
			}
			if interactive {
				if err := addForm(&req).Run(); err != nil {
					return err
				}
			}

			return withEnv(cmd, func(env *app.Env) error {
				res, err := env.Controller().Add(cmd.Context(), req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Job added successfully")
				printNote(out, res.Note)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&sound, "sound", false, "Play a sound with this job's notifications (off by default)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Fill in the job with an interactive form")
	return cmd
}

// addForm prompts for the job fields, keeping any values given as arguments.
func addForm(req *control.AddRequest) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&req.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Cron").
				Description(cron.Format).
				Value(&req.Schedule).
				Validate(cron.ValidateSchedule),
			huh.NewInput().
				Title("Message").
				Value(&req.Message),
			huh.NewConfirm().
				Title("Play a sound?").
				Value(&req.SoundEnabled),
		),
	)
}

func listCmd() *cobra.Command {
	var head int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all scheduled notification jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(env *app.Env) error {
				jobs, err := env.Controller().List(cmd.Context(), head)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs scheduled yet")
					return nil
				}
				return display.Jobs(cmd.OutOrStdout(), jobs, "Scheduled jobs:", false)
			})
		},
	}
	cmd.Flags().IntVar(&head, "head", 0, "Show only the N most recent jobs")
	return cmd
}

func detailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detail <name>",
		Short: "Show details of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(env *app.Env) error {
				job, err := env.Controller().Detail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return display.Detail(cmd.OutOrStdout(), job, time.Now())
			})
		},
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search jobs by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(env *app.Env) error {
				jobs, err := env.Controller().Search(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return display.Jobs(cmd.OutOrStdout(), jobs, fmt.Sprintf("Jobs containing '%s'", args[0]), true)
			})
		},
	}
}

func removeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a scheduled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !yes && stdinIsTerminal() {
				confirmed := false
				err := huh.NewConfirm().
					Title(fmt.Sprintf("Remove job '%s'?", name)).
					Value(&confirmed).
					Run()
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			return withEnv(cmd, func(env *app.Env) error {
				res, err := env.Controller().Remove(cmd.Context(), name)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job '%s' removed successfully\n", name)
				printNote(out, res.Note)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func toggleSoundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-sound <name>",
		Short: "Toggle the notification sound of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(env *app.Env) error {
				res, err := env.Controller().ToggleSound(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				state := "OFF"
				if res.Sound {
					state = "ON"
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Sound toggled to %s for job '%s'\n", state, args[0])
				printNote(out, res.Note)
				return nil
			})
		},
	}
}

func printNote(w io.Writer, note string) {
	if note != "" {
		fmt.Fprintf(w, "Note: %s\n", note)
	}
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func stderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
