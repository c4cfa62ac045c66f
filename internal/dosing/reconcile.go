package dosing

import "fmt"

// NextDoseAfter computes the replacement time for a medication's next
// scheduled occurrence after a dose was confirmed at the given actual time.
// The boolean result is false when the adjusted dose would only fall on the
// following day; the regular schedule applies in that case and no override
// should be stored.
func NextDoseAfter(actual string, intervalHours int) (string, bool, error) {
	if intervalHours < 1 || intervalHours > MaxIntervalHours {
		return "", false, fmt.Errorf("%w: interval must be between 1 and %d hours", ErrOutOfRange, MaxIntervalHours)
	}
	confirmed, err := ToMinutes(actual)
	if err != nil {
		return "", false, err
	}
	next := confirmed + intervalHours*60
	if next >= MinutesPerDay {
		return "", false, nil
	}
	return ToTimeOfDay(next), true, nil
}
