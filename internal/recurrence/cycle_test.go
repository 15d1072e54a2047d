package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/xaenox/routine-bot/internal/models"
)

func TestParseCycle(t *testing.T) {
	tests := []struct {
		in   string
		want models.Cycle
	}{
		{"1 day", models.Cycle{Count: 1, Unit: models.UnitDay}},
		{"2 week", models.Cycle{Count: 2, Unit: models.UnitWeek}},
		{"12 month", models.Cycle{Count: 12, Unit: models.UnitMonth}},
		{"0 day", models.Cycle{Count: 0, Unit: models.UnitDay}},
		{"-3 week", models.Cycle{Count: -3, Unit: models.UnitWeek}},
	}
	for _, tt := range tests {
		got, err := ParseCycle(tt.in)
		if err != nil {
			t.Fatalf("ParseCycle(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseCycle(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseCycleRejects(t *testing.T) {
	inputs := []string{"", "day", "2", "2 days", "2 Week", "two week", "2 week extra", "1.5 day", "2 year"}
	for _, in := range inputs {
		if _, err := ParseCycle(in); !errors.Is(err, ErrInvalidCycle) {
			t.Errorf("ParseCycle(%q) error = %v, want ErrInvalidCycle", in, err)
		}
	}
}

func TestAddCycleWeekIsSevenDays(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, taipei)
	for n := -60; n <= 60; n++ {
		week := AddCycle(start, n, models.UnitWeek)
		days := AddCycle(start, 7*n, models.UnitDay)
		if !week.Equal(days) {
			t.Fatalf("AddCycle(%d week) = %v, want %v", n, week, days)
		}
	}
}

func TestAddCycleDay(t *testing.T) {
	start := time.Date(2024, 2, 28, 0, 0, 0, 0, taipei)
	got := AddCycle(start, 2, models.UnitDay)
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, taipei); !got.Equal(want) {
		t.Errorf("AddCycle(2 day) = %v, want %v", got, want)
	}
}

func TestAddCycleMonth(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"across year", time.Date(2025, 12, 15, 0, 0, 0, 0, taipei), 2, time.Date(2026, 2, 15, 0, 0, 0, 0, taipei)},
		{"clamp to february", time.Date(2025, 1, 31, 0, 0, 0, 0, taipei), 1, time.Date(2025, 2, 28, 0, 0, 0, 0, taipei)},
		{"clamp to leap february", time.Date(2024, 1, 31, 0, 0, 0, 0, taipei), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, taipei)},
		{"clamp to 30 day month", time.Date(2025, 3, 31, 0, 0, 0, 0, taipei), 1, time.Date(2025, 4, 30, 0, 0, 0, 0, taipei)},
		{"backwards", time.Date(2025, 3, 31, 0, 0, 0, 0, taipei), -1, time.Date(2025, 2, 28, 0, 0, 0, 0, taipei)},
		{"backwards across year", time.Date(2025, 1, 10, 0, 0, 0, 0, taipei), -2, time.Date(2024, 11, 10, 0, 0, 0, 0, taipei)},
		{"twelve months", time.Date(2024, 2, 29, 0, 0, 0, 0, taipei), 12, time.Date(2025, 2, 28, 0, 0, 0, 0, taipei)},
		{"zero", time.Date(2025, 5, 5, 0, 0, 0, 0, taipei), 0, time.Date(2025, 5, 5, 0, 0, 0, 0, taipei)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddCycle(tt.start, tt.n, models.UnitMonth)
			if !got.Equal(tt.want) {
				t.Errorf("AddCycle(%v, %d month) = %v, want %v", tt.start, tt.n, got, tt.want)
			}
			if got.Location() != taipei {
				t.Errorf("AddCycle changed location to %v", got.Location())
			}
		})
	}
}

func TestNext(t *testing.T) {
	start := time.Date(2025, 8, 27, 0, 0, 0, 0, taipei)
	got := Next(start, models.Cycle{Count: 2, Unit: models.UnitWeek})
	if want := time.Date(2025, 9, 10, 0, 0, 0, 0, taipei); !got.Equal(want) {
		t.Errorf("Next = %v, want %v", got, want)
	}
}
