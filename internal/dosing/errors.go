package dosing

import "errors"

var (
	// ErrInvalidTimeFormat is returned when a value is not a valid HH:MM time.
	ErrInvalidTimeFormat = errors.New("dosing: invalid time format")
	// ErrOutOfRange is returned when a count or interval falls outside its bounds.
	ErrOutOfRange = errors.New("dosing: value out of range")
)
