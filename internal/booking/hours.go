package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedClockTime = errors.New("malformed clock time, want HH:MM")

// parseClock converts an "HH:MM" string to minutes since midnight.
func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClockTime, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClockTime, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClockTime, s)
	}
	return hour*60 + minute, nil
}

func clockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// withinWindow reports whether the order start falls inside the configured
// window. The comparison uses only the wall clock of startAt, at minute
// granularity, and is inclusive on both ends.
func withinWindow(h OpeningHours, startAt time.Time) (bool, error) {
	open, err := parseClock(h.OpenTime)
	if err != nil {
		return false, err
	}
	close, err := parseClock(h.CloseTime)
	if err != nil {
		return false, err
	}
	at := clockMinutes(startAt)
	return open <= at && at <= close, nil
}
