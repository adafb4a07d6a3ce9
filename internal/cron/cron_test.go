package cron

import (
	"errors"
	"testing"
	"time"
)

func TestValidateSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr  string
		valid bool
	}{
		{"0 0 9 * * *", true},
		{"0 0 10 * * 1-5", true},
		{"*/30 * * * * *", true},
		{"0 30 8 1 * *", true},
		{"@daily", true},
		{"", false},
		{"   ", false},
		{"* * * * *", false}, // 5 fields: no seconds
		{"0 0 9 * * * *", false},
		{"61 * * * * *", false},
		{"0 0 25 * * *", false},
		{"every day", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			err := ValidateSchedule(tt.expr)
			if tt.valid && err != nil {
				t.Fatalf("ValidateSchedule(%q) = %v, want nil", tt.expr, err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatalf("ValidateSchedule(%q) = nil, want error", tt.expr)
				}
				if !errors.Is(err, ErrInvalidSchedule) {
					t.Fatalf("error %v does not wrap ErrInvalidSchedule", err)
				}
			}
		})
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	ref := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC) // Monday
	got, err := Next("0 0 9 * * *", ref)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next = %v, want %v", got, want)
	}

	// Weekdays only: Saturday 11:00 rolls to Monday 10:00.
	sat := time.Date(2024, 3, 9, 11, 0, 0, 0, time.UTC)
	got, err = Next("0 0 10 * * 1-5", sat)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want = time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next = %v, want %v", got, want)
	}
}

func TestNext_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := Next("nope", time.Now()); !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("Next error = %v, want ErrInvalidSchedule", err)
	}
}
