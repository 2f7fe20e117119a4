// Package stream implements the Stream and TimeWindow value-type algebra
// that the routing core's every other package builds on (spec.md §3).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stream

import (
	"fmt"
	"strings"
)

// Wildcard is the only wildcard character accepted in a Stream component;
// '?' is rejected at ingest (spec.md §3, §4.1).
const Wildcard = "*"

// Stream is the four-tuple (network, station, location, channel) identifying
// a seismological time series. Each component is either a literal token or
// the single-character wildcard "*".
type Stream struct {
	N, S, L, C string
}

// New builds a Stream, defaulting any empty component to the wildcard, the
// rule XML ingest applies to missing/empty stream attributes (spec.md §4.1).
func New(n, s, l, c string) Stream {
	return Stream{N: orWild(n), S: orWild(s), L: orWild(l), C: orWild(c)}
}

func orWild(s string) string {
	if s == "" {
		return Wildcard
	}
	return s
}

// HasForbiddenWildcard reports whether any component contains '?', which
// ingest must reject outright (spec.md §3, §4.1).
func (s Stream) HasForbiddenWildcard() bool {
	return strings.ContainsRune(s.N, '?') || strings.ContainsRune(s.S, '?') ||
		strings.ContainsRune(s.L, '?') || strings.ContainsRune(s.C, '?')
}

// HasOnlyStarWildcards reports whether every component is either exactly the
// wildcard "*" or a literal with no '*' or '?' in it, the rule ingest applies
// to virtual-network members (a mixture like "A*" is rejected).
func (s Stream) HasOnlyStarWildcards() bool {
	return onlyStar(s.N) && onlyStar(s.S) && onlyStar(s.L) && onlyStar(s.C)
}

func onlyStar(c string) bool {
	return c == Wildcard || !strings.ContainsAny(c, "*?")
}

// componentMatch shell-matches a single component against a pattern, where
// either side may be the wildcard "*". A literal only matches itself.
func componentMatch(pattern, lit string) bool {
	return pattern == Wildcard || lit == Wildcard || pattern == lit
}

// Contains reports whether s, used as a pattern, matches every concrete
// value other could take on, i.e. a ⊇ b (spec.md §3).
func (s Stream) Contains(other Stream) bool {
	in := func(pattern, c string) bool { return pattern == Wildcard || pattern == c }
	return in(s.N, other.N) && in(s.S, other.S) && in(s.L, other.L) && in(s.C, other.C)
}

// Overlap is symmetric containment on any assignment: two patterns overlap
// iff some concrete stream matches both (spec.md §3). Each component pair
// overlaps when either side is "*" or both literals are equal.
func (s Stream) Overlap(other Stream) bool {
	return componentMatch(s.N, other.N) && componentMatch(s.S, other.S) &&
		componentMatch(s.L, other.L) && componentMatch(s.C, other.C)
}

// MatchesStation reports whether a cached station's concrete name satisfies
// this Stream's station component — a wildcard matches any name, a literal
// matches only itself (spec.md §4.5 step (e): "cached station cs whose name
// matches stream.s").
func (s Stream) MatchesStation(name string) bool {
	return componentMatch(s.S, name)
}

// Equal is plain componentwise equality, distinct from Overlap/Contains.
func (s Stream) Equal(other Stream) bool {
	return s.N == other.N && s.S == other.S && s.L == other.L && s.C == other.C
}

// String renders net.sta.loc.cha, the conventional FDSN display form.
func (s Stream) String() string {
	return s.N + "." + s.S + "." + s.L + "." + s.C
}

// Parse is the inverse of String: it splits a "N.S.L.C" key back into its
// four components. Used to round-trip Stream as a map key across the
// compiled snapshot's serialization boundary.
func Parse(key string) (Stream, bool) {
	parts := strings.SplitN(key, ".", 4)
	if len(parts) != 4 {
		return Stream{}, false
	}
	return Stream{N: parts[0], S: parts[1], L: parts[2], C: parts[3]}, true
}

// MarshalText renders s the way String does, letting Stream serialize
// directly as a JSON object key (spec.md §3 "compiled snapshot").
func (s Stream) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is MarshalText's inverse.
func (s *Stream) UnmarshalText(b []byte) error {
	parsed, ok := Parse(string(b))
	if !ok {
		return fmt.Errorf("stream: invalid key %q", b)
	}
	*s = parsed
	return nil
}

// strictMatchComponent narrows one pattern component against another: wildcard loses
// to literal, equal literals keep their value, unequal literals fail.
func strictMatchComponent(a, b string) (string, bool) {
	switch {
	case a == Wildcard:
		return b, true
	case b == Wildcard:
		return a, true
	case a == b:
		return a, true
	default:
		return "", false
	}
}

// StrictMatch returns the componentwise narrower of a and b, rejecting when
// both components are literal and unequal (spec.md §3). Used both by the
// virtual-network expansion (narrowing a vnet member against the caller's
// stream) and by the query engine (narrowing the caller's stream against an
// accepted routing-table key).
func StrictMatch(a, b Stream) (Stream, bool) {
	n, ok := strictMatchComponent(a.N, b.N)
	if !ok {
		return Stream{}, false
	}
	s, ok := strictMatchComponent(a.S, b.S)
	if !ok {
		return Stream{}, false
	}
	l, ok := strictMatchComponent(a.L, b.L)
	if !ok {
		return Stream{}, false
	}
	c, ok := strictMatchComponent(a.C, b.C)
	if !ok {
		return Stream{}, false
	}
	return Stream{N: n, S: s, L: l, C: c}, true
}
