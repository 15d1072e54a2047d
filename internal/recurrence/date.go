// Package recurrence parses user supplied dates and reminder cycles and does
// the calendar arithmetic for reminder schedules.
package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// Relative day tokens
const (
	Today     = "今天"
	Tomorrow  = "明天"
	Yesterday = "昨天"
)

// PickerLayout is the format of date picker values.
const PickerLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseDate turns text into a day precision date in loc. Accepted inputs are
// one of the relative day tokens, MMDD in referenceYear, or YYYYMMDD. now is
// the reference instant for relative tokens.
func ParseDate(text string, referenceYear int, now time.Time, loc *time.Location) (time.Time, error) {
	switch utf8.RuneCountInString(text) {
	case 2:
		today := Truncate(now, loc)
		switch text {
		case Today:
			return today, nil
		case Tomorrow:
			return today.AddDate(0, 0, 1), nil
		case Yesterday:
			return today.AddDate(0, 0, -1), nil
		}
	case 4:
		if month, day, ok := digits2(text); ok {
			return calendarDate(referenceYear, month, day, loc)
		}
	case 8:
		if len(text) == 8 && isDigits(text) {
			year, _ := strconv.Atoi(text[:4])
			month, day, _ := digits2(text[4:])
			return calendarDate(year, month, day, loc)
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
}

// ParsePickerDate parses a YYYY-MM-DD date picker value in loc.
func ParsePickerDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(PickerLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// Truncate returns local midnight of t's calendar day in loc.
func Truncate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func calendarDate(year, month, day int, loc *time.Location) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes overflow, e.g. Feb 30 becomes Mar 2
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return t, nil
}

// digits2 splits a four digit string into two two-digit numbers.
func digits2(s string) (int, int, bool) {
	if len(s) != 4 || !isDigits(s) {
		return 0, 0, false
	}
	a, _ := strconv.Atoi(s[:2])
	b, _ := strconv.Atoi(s[2:])
	return a, b, true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
