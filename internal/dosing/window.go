// Package dosing computes daily dose schedules, sleep-window avoidance and
// late-confirmation adjustments. All functions are pure; callers own
// persistence and presentation.
package dosing

import (
	"fmt"
	"regexp"
	"strconv"
)

// MinutesPerDay is the length of a calendar day in minutes.
const MinutesPerDay = 24 * 60

var timeOfDayPattern = regexp.MustCompile(`^([0-9]{1,2}):([0-9]{2})$`)

// ToMinutes converts an HH:MM string into a minute-of-day value in [0, 1440).
func ToMinutes(value string) (int, error) {
	match := timeOfDayPattern.FindStringSubmatch(value)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	hour, err := strconv.Atoi(match[1])
	if err != nil || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	minute, err := strconv.Atoi(match[2])
	if err != nil || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	return hour*60 + minute, nil
}

// ToTimeOfDay converts a minute counter into an HH:MM string. The counter is
// taken modulo one day, so values beyond midnight map onto the following day.
func ToTimeOfDay(minutes int) string {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Window delimits the patient's sleep interval. Start and End are HH:MM
// values; the window may wrap past midnight (Start > End).
type Window struct {
	Start string
	End   string
}

// Validate reports whether both bounds are well formed times of day.
func (w Window) Validate() error {
	if _, err := ToMinutes(w.Start); err != nil {
		return err
	}
	if _, err := ToMinutes(w.End); err != nil {
		return err
	}
	return nil
}

// IsAsleep reports whether the given time of day falls inside the sleep
// window. The start bound is inclusive and the end bound exclusive; wrapping
// windows treat the interval as [start, 24:00) plus [00:00, end).
func IsAsleep(value string, window Window) (bool, error) {
	v, err := ToMinutes(value)
	if err != nil {
		return false, err
	}
	start, err := ToMinutes(window.Start)
	if err != nil {
		return false, err
	}
	end, err := ToMinutes(window.End)
	if err != nil {
		return false, err
	}
	if start > end {
		return v >= start || v < end, nil
	}
	return v >= start && v < end, nil
}
