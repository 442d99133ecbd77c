package booking

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"17:30", 1050, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"9", 0, true},
		{"", 0, true},
		{"ab:cd", 0, true},
	}

	for _, tt := range cases {
		got, err := parseClock(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedClockTime) {
				t.Fatalf("parseClock(%q): want ErrMalformedClockTime, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseClock(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseClock(%q)=%d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWithinWindow(t *testing.T) {
	window := OpeningHours{OpenTime: "09:00", CloseTime: "17:00", IsOpen: true}

	at := func(hour, minute int) time.Time {
		return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
	}

	cases := []struct {
		hour, minute int
		want         bool
	}{
		{9, 0, true},   // open boundary inclusive
		{17, 0, true},  // close boundary inclusive
		{12, 30, true},
		{8, 59, false},
		{17, 1, false},
		{0, 0, false},
	}

	for _, tt := range cases {
		got, err := withinWindow(window, at(tt.hour, tt.minute))
		if err != nil {
			t.Fatalf("withinWindow at %02d:%02d: %v", tt.hour, tt.minute, err)
		}
		if got != tt.want {
			t.Fatalf("withinWindow at %02d:%02d = %v, want %v", tt.hour, tt.minute, got, tt.want)
		}
	}
}

func TestWithinWindowMalformedConfig(t *testing.T) {
	window := OpeningHours{OpenTime: "morning", CloseTime: "17:00", IsOpen: true}
	if _, err := withinWindow(window, time.Now()); !errors.Is(err, ErrMalformedClockTime) {
		t.Fatalf("want ErrMalformedClockTime, got %v", err)
	}
}
