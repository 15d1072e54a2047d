package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xaenox/routine-bot/internal/models"
)

var ErrInvalidCycle = errors.New("invalid cycle")

// ParseCycle parses "<count> <unit>" such as "2 week". The count may be zero
// or negative; callers decide whether such cycles make sense.
func ParseCycle(text string) (models.Cycle, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return models.Cycle{}, fmt.Errorf("%w: %q", ErrInvalidCycle, text)
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.Cycle{}, fmt.Errorf("%w: count %q", ErrInvalidCycle, fields[0])
	}
	unit := models.Unit(fields[1])
	if !unit.Valid() {
		return models.Cycle{}, fmt.Errorf("%w: unit %q", ErrInvalidCycle, fields[1])
	}
	return models.Cycle{Count: count, Unit: unit}, nil
}

// AddCycle adds count units to date following the calendar of date's
// location. Month arithmetic clamps to the last day of the target month, so
// Jan 31 plus one month is the last day of February. unit must be valid;
// cycles from ParseCycle and from storage are checked before they get here.
func AddCycle(date time.Time, count int, unit models.Unit) time.Time {
	switch unit {
	case models.UnitDay:
		return date.AddDate(0, 0, count)
	case models.UnitWeek:
		return date.AddDate(0, 0, 7*count)
	case models.UnitMonth:
		return addMonths(date, count)
	}
	panic(fmt.Sprintf("recurrence: unknown unit %q", unit))
}

// Next returns the reminder due after date for cycle c.
func Next(date time.Time, c models.Cycle) time.Time {
	return AddCycle(date, c.Count, c.Unit)
}

func addMonths(date time.Time, n int) time.Time {
	y, m, d := date.Date()
	hh, mm, ss := date.Clock()
	// day 1 never overflows, so the target month is exact
	first := time.Date(y, m+time.Month(n), 1, hh, mm, ss, date.Nanosecond(), date.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, date.Nanosecond(), date.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
