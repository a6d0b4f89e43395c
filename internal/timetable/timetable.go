package timetable

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	sep := strings.Index(s, ":")
	if sep < 0 {
		return Clock{}, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err := strconv.Atoi(s[:sep])
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q", s)
	}
	minute, err := strconv.Atoi(s[sep+1:])
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("time of day %q out of range", s)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On anchors the clock value to the calendar day of ref.
func (c Clock) On(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), c.Hour, c.Minute, 0, 0, ref.Location())
}

func (c Clock) before(other Clock) bool {
	return c.Hour < other.Hour || (c.Hour == other.Hour && c.Minute < other.Minute)
}

// Slot is one lecture interval of the daily timetable.
type Slot struct {
	Index int
	Start Clock
	End   Clock
}

// Range renders the slot bounds the way ledger keys and exports expect,
// e.g. "(09:00-10:00)".
func (s Slot) Range() string {
	return "(" + s.Start.String() + "-" + s.End.String() + ")"
}

// Active is a resolved slot: the static bounds plus the end timestamp
// anchored to the queried day.
type Active struct {
	Slot
	EndsAt time.Time
}

// Timetable answers which lecture slot contains a wall-clock instant.
// Immutable after construction.
type Timetable struct {
	slots []Slot
}

// New builds a timetable from explicit (start, end) pairs. Slots must be
// strictly increasing and non-overlapping; violations are configuration
// errors.
func New(pairs [][2]string) (*Timetable, error) {
	slots := make([]Slot, 0, len(pairs))
	for i, pair := range pairs {
		start, err := ParseClock(pair[0])
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(pair[1])
		if err != nil {
			return nil, err
		}
		if !start.before(end) {
			return nil, fmt.Errorf("slot %d: start %s not before end %s", i, start, end)
		}
		if i > 0 && end.before(slots[i-1].End) {
			return nil, fmt.Errorf("slot %d overlaps or precedes slot %d", i, i-1)
		}
		if i > 0 && start.before(slots[i-1].End) {
			return nil, fmt.Errorf("slot %d overlaps slot %d", i, i-1)
		}
		slots = append(slots, Slot{Index: i, Start: start, End: end})
	}
	return &Timetable{slots: slots}, nil
}

// FromBreakpoints derives slots as adjacent pairs of an ascending
// breakpoint sequence, e.g. [09:00 10:00 11:00] -> two slots.
func FromBreakpoints(points []string) (*Timetable, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least two breakpoints, got %d", len(points))
	}
	pairs := make([][2]string, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		pairs = append(pairs, [2]string{points[i], points[i+1]})
	}
	return New(pairs)
}

// LoadTiming reads the timing file: a single-key object mapping to the
// ordered breakpoint list.
func LoadTiming(path string) (*Timetable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timing file: %w", err)
	}
	var doc map[string][]string
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse timing file: %w", err)
	}
	for _, points := range doc {
		return FromBreakpoints(points)
	}
	return nil, fmt.Errorf("timing file %s has no breakpoint list", path)
}

// CurrentSlot returns the first slot whose [start, end) interval,
// re-anchored to now's calendar day, contains now. ok=false means now
// falls outside operating hours or in an inter-slot gap.
func (t *Timetable) CurrentSlot(now time.Time) (Active, bool) {
	for _, slot := range t.slots {
		start := slot.Start.On(now)
		end := slot.End.On(now)
		if !now.Before(start) && now.Before(end) {
			return Active{Slot: slot, EndsAt: end}, true
		}
	}
	return Active{}, false
}

// Slots returns the ordered slot list.
func (t *Timetable) Slots() []Slot {
	return t.slots
}
