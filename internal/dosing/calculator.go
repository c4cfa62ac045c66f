package dosing

import "fmt"

// sleepMargin is the offset in minutes applied when a dose is pushed out of
// the sleep window.
const sleepMargin = 60

const minIntervalMinutes = 60

// Bounds accepted by the calculators; inputs outside them fail with
// ErrOutOfRange.
const (
	MaxIntervalHours = 48
	MaxTotalDoses    = 100
	MaxDailyCount    = 12
)

// Category governs whether a dose may be scheduled inside the sleep window.
type Category string

const (
	// CategoryEssential doses stay inside the sleep window and alarm there.
	CategoryEssential Category = "essential"
	// CategoryNormal doses are shifted past the end of the sleep window.
	CategoryNormal Category = "normal"
)

// ConflictKind classifies an annotation produced while walking a schedule.
type ConflictKind string

const (
	// ConflictMoved marks a dose relocated out of the sleep window.
	ConflictMoved ConflictKind = "moved"
	// ConflictSleepAlarm marks an essential dose kept inside the sleep window.
	ConflictSleepAlarm ConflictKind = "will-alarm-during-sleep"
	// ConflictOverflowsMidnight marks a dose whose cadence ran past midnight.
	ConflictOverflowsMidnight ConflictKind = "overflows-midnight"
)

// Conflict annotates a single dose in a computed plan. Conflicts are
// informational; they never invalidate the plan.
type Conflict struct {
	Index int
	Kind  ConflictKind
	Time  string
	// MovedTo is set for ConflictMoved.
	MovedTo string
}

// DailyPlan is the result of distributing doses across a single day.
type DailyPlan struct {
	Times []string
	// IntervalMinutes is the derived cadence between doses; zero for a
	// single-dose plan.
	IntervalMinutes int
	Conflicts       []Conflict
}

// Dose locates one administration inside a multi-day plan. Day zero is the
// day of the first dose.
type Dose struct {
	Day  int
	Time string
}

// IntervalPlan is the result of walking a fixed-interval schedule.
type IntervalPlan struct {
	Doses     []Dose
	Conflicts []Conflict
}

// DistributeDaily spreads count doses between firstDose and the start of the
// sleep window. Doses landing inside the window are pushed to one hour past
// its end when the category allows; subsequent doses continue their cadence
// from the shifted time rather than the original one, so a single shift does
// not funnel later doses back into the window.
func DistributeDaily(firstDose string, count int, window Window, category Category) (DailyPlan, error) {
	if count < 1 || count > MaxDailyCount {
		return DailyPlan{}, fmt.Errorf("%w: doses per day must be between 1 and %d", ErrOutOfRange, MaxDailyCount)
	}
	first, err := ToMinutes(firstDose)
	if err != nil {
		return DailyPlan{}, err
	}
	if err := window.Validate(); err != nil {
		return DailyPlan{}, err
	}

	if count == 1 {
		time := ToTimeOfDay(first)
		asleep, err := IsAsleep(time, window)
		if err != nil {
			return DailyPlan{}, err
		}
		if !asleep {
			return DailyPlan{Times: []string{time}}, nil
		}
		if category == CategoryEssential {
			return DailyPlan{
				Times:     []string{time},
				Conflicts: []Conflict{{Index: 0, Kind: ConflictSleepAlarm, Time: time}},
			}, nil
		}
		shifted := ToTimeOfDay(mustMinutes(window.End) + sleepMargin)
		return DailyPlan{
			Times:     []string{shifted},
			Conflicts: []Conflict{{Index: 0, Kind: ConflictMoved, Time: time, MovedTo: shifted}},
		}, nil
	}

	sleepStart := mustMinutes(window.Start)
	span := sleepStart - first
	if span <= 0 {
		span += MinutesPerDay
	}
	interval := span / (count - 1)
	if interval < minIntervalMinutes {
		interval = minIntervalMinutes
	}

	plan := DailyPlan{
		Times:           make([]string, 0, count),
		IntervalMinutes: interval,
	}
	cursor := first
	for i := 0; i < count; i++ {
		if i > 0 {
			cursor += interval
		}
		var time string
		cursor, time, plan.Conflicts = avoidSleep(cursor, i, window, category, plan.Conflicts)
		if i > 0 && cursor >= MinutesPerDay {
			plan.Conflicts = append(plan.Conflicts, Conflict{Index: i, Kind: ConflictOverflowsMidnight, Time: time})
		}
		plan.Times = append(plan.Times, time)
	}
	return plan, nil
}

// ExpandFixedInterval walks totalDoses administrations spaced intervalHours
// apart, starting at firstDose. Schedules may span several calendar days; the
// sleep-avoidance policy matches DistributeDaily, with a shift rolling into
// the next day when the target time already passed on the current one.
func ExpandFixedInterval(firstDose string, intervalHours, totalDoses int, window Window, category Category) (IntervalPlan, error) {
	if intervalHours < 1 || intervalHours > MaxIntervalHours {
		return IntervalPlan{}, fmt.Errorf("%w: interval must be between 1 and %d hours", ErrOutOfRange, MaxIntervalHours)
	}
	if totalDoses < 1 || totalDoses > MaxTotalDoses {
		return IntervalPlan{}, fmt.Errorf("%w: total doses must be between 1 and %d", ErrOutOfRange, MaxTotalDoses)
	}
	first, err := ToMinutes(firstDose)
	if err != nil {
		return IntervalPlan{}, err
	}
	if err := window.Validate(); err != nil {
		return IntervalPlan{}, err
	}

	plan := IntervalPlan{Doses: make([]Dose, 0, totalDoses)}
	cursor := first
	for i := 0; i < totalDoses; i++ {
		if i > 0 {
			cursor += intervalHours * 60
		}
		var time string
		cursor, time, plan.Conflicts = avoidSleep(cursor, i, window, category, plan.Conflicts)
		plan.Doses = append(plan.Doses, Dose{Day: cursor / MinutesPerDay, Time: time})
	}
	return plan, nil
}

// avoidSleep applies the sleep-window policy to the dose at the given running
// minute counter. It returns the possibly shifted counter, the resulting time
// of day, and the updated conflict list.
func avoidSleep(cursor, index int, window Window, category Category, conflicts []Conflict) (int, string, []Conflict) {
	time := ToTimeOfDay(cursor)
	asleep, err := IsAsleep(time, window)
	if err != nil || !asleep {
		return cursor, time, conflicts
	}
	if category == CategoryEssential {
		return cursor, time, append(conflicts, Conflict{Index: index, Kind: ConflictSleepAlarm, Time: time})
	}
	shifted := (cursor/MinutesPerDay)*MinutesPerDay + mustMinutes(window.End) + sleepMargin
	for shifted < cursor {
		shifted += MinutesPerDay
	}
	moved := ToTimeOfDay(shifted)
	conflicts = append(conflicts, Conflict{Index: index, Kind: ConflictMoved, Time: time, MovedTo: moved})
	return shifted, moved, conflicts
}

// mustMinutes converts a time already validated by the caller.
func mustMinutes(value string) int {
	minutes, err := ToMinutes(value)
	if err != nil {
		return 0
	}
	return minutes
}
