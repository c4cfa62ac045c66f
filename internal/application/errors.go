package application

import (
	"errors"
	"fmt"

	"github.com/example/medication-assistant/internal/persistence"
)

var (
	// ErrNotFound is returned when no medication matches an id or name.
	ErrNotFound = errors.New("application: not found")
	// ErrDuplicateSchedule is returned when an active record already exists
	// with the same name and schedule times.
	ErrDuplicateSchedule = errors.New("application: duplicate schedule")
	// ErrAmbiguousName is returned when a name lookup matches several
	// records; callers must surface the candidates, never pick one.
	ErrAmbiguousName = errors.New("application: ambiguous name match")
)

// AmbiguousNameError carries the records that all matched a name token so
// every caller can present the disambiguation list. It matches
// ErrAmbiguousName under errors.Is.
type AmbiguousNameError struct {
	Token      string
	Candidates []persistence.Medication
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("%v: %s", ErrAmbiguousName, e.Token)
}

func (e *AmbiguousNameError) Unwrap() error { return ErrAmbiguousName }
