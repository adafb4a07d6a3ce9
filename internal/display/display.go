// Package display renders jobs for the terminal.
package display

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/flemzord/pokeme/internal/cron"
	"github.com/flemzord/pokeme/internal/store"
)

const createdLayout = "2006-01-02 15:04"

var header = []string{"Name", "Cron", "Detail", "Sound", "Created"}

// Jobs writes a table of jobs under title. With showCount the number of
// rows is appended to the title.
func Jobs(w io.Writer, jobs []store.Job, title string, showCount bool) error {
	if showCount {
		title = fmt.Sprintf("%s (%d found):", title, len(jobs))
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	data := pterm.TableData{header}
	for _, j := range jobs {
		data = append(data, row(j))
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("display: render table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// Detail writes one job with its next fire time relative to now.
func Detail(w io.Writer, job store.Job, now time.Time) error {
	next := "-"
	if t, err := cron.Next(job.Schedule, now); err == nil && !t.IsZero() {
		next = t.Local().Format(time.RFC1123)
	}

	data := pterm.TableData{
		{"Name", job.Name},
		{"ID", job.ID},
		{"Cron", job.Schedule},
		{"Detail", job.Message},
		{"Sound", onOff(job.SoundEnabled)},
		{"Created", job.CreatedAt.Local().Format(createdLayout)},
		{"Next", next},
	}
	out, err := pterm.DefaultTable.WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("display: render detail: %w", err)
	}
	_, err = fmt.Fprintf(w, "Job Details:\n%s\n", out)
	return err
}

func row(j store.Job) []string {
	return []string{
		j.Name,
		j.Schedule,
		j.Message,
		onOff(j.SoundEnabled),
		j.CreatedAt.Local().Format(createdLayout),
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// Count formats n jobs for status lines.
func Count(n int) string {
	if n == 1 {
		return "1 job"
	}
	return strconv.Itoa(n) + " jobs"
}
