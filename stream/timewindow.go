package stream

import (
	"strconv"
	"strings"
	"time"

	"github.com/eida/routingcore/cmn/debug"
)

// TimeWindow is a half-open-or-fully-bounded interval; either side may be
// absent, meaning unbounded on that side (spec.md §3). The zero value is
// unbounded on both sides.
type TimeWindow struct {
	Start *time.Time
	End   *time.Time
}

// Unbounded is the window [-inf, +inf].
var Unbounded = TimeWindow{}

// NewTimeWindow validates the invariant start <= end when both are present.
func NewTimeWindow(start, end *time.Time) (TimeWindow, bool) {
	if start != nil && end != nil && start.After(*end) {
		return TimeWindow{}, false
	}
	return TimeWindow{Start: start, End: end}, true
}

func (w TimeWindow) startBefore(t time.Time) bool {
	return w.Start == nil || !w.Start.After(t)
}

func (w TimeWindow) endAfter(t time.Time) bool {
	return w.End == nil || !w.End.Before(t)
}

// Contains reports whether other lies entirely within w.
func (w TimeWindow) Contains(other TimeWindow) bool {
	if other.Start == nil {
		if w.Start != nil {
			return false
		}
	} else if !w.startBefore(*other.Start) {
		return false
	}
	if other.End == nil {
		if w.End != nil {
			return false
		}
	} else if !w.endAfter(*other.End) {
		return false
	}
	return true
}

// Overlap is reflexive and symmetric: treats absent bounds as +/-inf
// (spec.md §3, invariant 6).
func (w TimeWindow) Overlap(other TimeWindow) bool {
	if w.Start != nil && other.End != nil && w.Start.After(*other.End) {
		return false
	}
	if other.Start != nil && w.End != nil && other.Start.After(*w.End) {
		return false
	}
	return true
}

// Intersection fails (ok=false) when the windows don't overlap, i.e. the
// result would be empty (spec.md §3).
func (w TimeWindow) Intersection(other TimeWindow) (result TimeWindow, ok bool) {
	if !w.Overlap(other) {
		return TimeWindow{}, false
	}
	start := laterStart(w.Start, other.Start)
	end := earlierEnd(w.End, other.End)
	result, ok = NewTimeWindow(start, end)
	debug.Assert(!ok || (w.Contains(result) && other.Contains(result)), "timewindow: intersection not contained in both operands")
	return result, ok
}

func laterStart(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.After(*b):
		return a
	default:
		return b
	}
}

func earlierEnd(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Before(*b):
		return a
	default:
		return b
	}
}

// Difference returns the 0-2 disjoint windows that remain of w once other is
// removed (spec.md §3). w.Difference(w) == [] (invariant 5).
func (w TimeWindow) Difference(other TimeWindow) []TimeWindow {
	inter, ok := w.Intersection(other)
	if !ok {
		return []TimeWindow{w}
	}
	var out []TimeWindow
	// left remainder: [w.Start, inter.Start)
	if inter.Start != nil && (w.Start == nil || w.Start.Before(*inter.Start)) {
		end := addEpsilon(*inter.Start, -1)
		out = append(out, TimeWindow{Start: w.Start, End: &end})
	}
	// right remainder: (inter.End, w.End]
	if inter.End != nil && (w.End == nil || w.End.After(*inter.End)) {
		start := addEpsilon(*inter.End, 1)
		out = append(out, TimeWindow{Start: &start, End: w.End})
	}
	return out
}

// addEpsilon nudges a boundary by one microsecond so adjoining remainder
// windows never re-overlap the removed slice; microsecond is this package's
// finest resolution (see ParseISO).
func addEpsilon(t time.Time, sign int) time.Time {
	return t.Add(time.Duration(sign) * time.Microsecond)
}

// ParseISO implements the liberal ISO-8601 parsing rule of spec.md §6:
// replace '-', 'T', ':', '.' with spaces, drop 'Z', split on whitespace, and
// construct a date-time from the integer fields in order (year, month, day,
// hour, minute, second, microsecond). Empty input is absent (nil, true).
// Unparseable input returns ok=false.
func ParseISO(s string) (t *time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	s = strings.NewReplacer("-", " ", "T", " ", ":", " ", ".", " ").Replace(s)
	s = strings.ReplaceAll(s, "Z", "")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, false
	}
	vals := [7]int{1, 1, 1, 0, 0, 0, 0} // year, month, day, hour, min, sec, usec
	for i, f := range fields {
		if i >= len(vals) {
			break
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		vals[i] = n
	}
	if len(fields) < 1 {
		return nil, false
	}
	tv := time.Date(vals[0], time.Month(vals[1]), vals[2], vals[3], vals[4], vals[5],
		vals[6]*1000, time.UTC)
	return &tv, true
}
