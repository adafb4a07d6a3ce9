// Package store persists job definitions in SQLite using modernc.org/sqlite
// (pure Go, no CGO) in WAL mode.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/flemzord/pokeme/internal/cron"
)

// Sentinel errors for store operations.
var (
	ErrNotFound      = errors.New("store: job not found")
	ErrDuplicateName = errors.New("store: duplicate job name")
	ErrInvalidJob    = errors.New("store: invalid job")
)

// Job is a named recurring notification definition.
type Job struct {
	ID           string    `validate:"required"`
	Name         string    `validate:"required,max=64"`
	Schedule     string    `validate:"required"`
	Message      string    `validate:"max=1024"`
	SoundEnabled bool
	CreatedAt    time.Time `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewJob builds a validated Job with a fresh ID. Invalid schedules fail with
// an error wrapping cron.ErrInvalidSchedule and never reach the database.
func NewJob(name, schedule, message string, soundEnabled bool) (Job, error) {
	j := Job{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Schedule:     strings.TrimSpace(schedule),
		Message:      message,
		SoundEnabled: soundEnabled,
		CreatedAt:    time.Now().UTC(),
	}
	if err := j.Validate(); err != nil {
		return Job{}, err
	}
	return j, nil
}

// Validate checks field constraints and the cron expression.
func (j Job) Validate() error {
	if err := validate.Struct(j); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed %q", ErrInvalidJob, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	return cron.ValidateSchedule(j.Schedule)
}
