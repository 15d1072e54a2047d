package recurrence

import (
	"errors"
	"testing"
	"time"
)

var taipei = time.FixedZone("Asia/Taipei", 8*60*60)

func TestParseDate(t *testing.T) {
	// 2025-08-27 23:30 in Taipei is still the 27th locally but the 27th 15:30 in UTC
	now := time.Date(2025, 8, 27, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"today", Today, time.Date(2025, 8, 27, 0, 0, 0, 0, taipei)},
		{"tomorrow", Tomorrow, time.Date(2025, 8, 28, 0, 0, 0, 0, taipei)},
		{"yesterday", Yesterday, time.Date(2025, 8, 26, 0, 0, 0, 0, taipei)},
		{"mmdd", "0827", time.Date(2025, 8, 27, 0, 0, 0, 0, taipei)},
		{"mmdd leap day", "0229", time.Date(2024, 2, 29, 0, 0, 0, 0, taipei)},
		{"yyyymmdd", "20240105", time.Date(2024, 1, 5, 0, 0, 0, 0, taipei)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year := 2025
			if tt.name == "mmdd leap day" {
				year = 2024
			}
			got, err := ParseDate(tt.in, year, now, taipei)
			if err != nil {
				t.Fatalf("ParseDate(%q) error: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Location() != taipei {
				t.Errorf("ParseDate(%q) location = %v, want %v", tt.in, got.Location(), taipei)
			}
			if h, m, s := got.Clock(); h != 0 || m != 0 || s != 0 {
				t.Errorf("ParseDate(%q) not at local midnight: %v", tt.in, got)
			}
		})
	}
}

func TestParseDateLocalDayBoundary(t *testing.T) {
	// 17:00 UTC is already the next day in Taipei
	now := time.Date(2025, 12, 31, 17, 0, 0, 0, time.UTC)
	got, err := ParseDate(Today, 2025, now, taipei)
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, taipei)
	if !got.Equal(want) {
		t.Errorf("ParseDate(today) = %v, want %v", got, want)
	}
}

func TestParseDateRejects(t *testing.T) {
	now := time.Date(2025, 8, 27, 0, 0, 0, 0, taipei)
	inputs := []string{
		"",
		"a",
		"前天",
		"ab",
		"1327",
		"0230",
		"0000",
		"08a7",
		"082",
		"08270",
		"20251301",
		"20250431",
		"2025082",
		"2025-8-27",
		"202508271",
		"今天今天今天今天",
	}
	for _, in := range inputs {
		if _, err := ParseDate(in, 2025, now, taipei); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", in, err)
		}
	}
}

func TestParsePickerDate(t *testing.T) {
	got, err := ParsePickerDate("2025-03-09", taipei)
	if err != nil {
		t.Fatalf("ParsePickerDate error: %v", err)
	}
	if want := time.Date(2025, 3, 9, 0, 0, 0, 0, taipei); !got.Equal(want) {
		t.Errorf("ParsePickerDate = %v, want %v", got, want)
	}
	if _, err := ParsePickerDate("2025-02-30", taipei); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ParsePickerDate(2025-02-30) error = %v, want ErrInvalidDate", err)
	}
}
