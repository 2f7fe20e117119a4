// Package routetable holds the four tables the routing cache owns:
// RoutingTable, VirtualNetworkTable, StationCache and DataCentreRegistry
// (spec.md §3). All four are immutable once built; a refresh builds a new
// set and the cache swaps a single pointer to it (spec.md §5).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package routetable

import (
	"sort"

	"github.com/eida/routingcore/cmn/debug"
	"github.com/eida/routingcore/route"
	"github.com/eida/routingcore/stream"
)

// RoutingTable maps a (possibly wildcarded) Stream key to its routes, sorted
// ascending by priority (spec.md §3, §8 invariant 1). The key set is not
// uniqued up to overlap: two keys may themselves overlap, and the query
// engine — not the table — is what reconciles that (spec.md §4.5(d)).
type RoutingTable map[stream.Stream][]route.Route

// NewRoutingTable returns an empty, ready-to-populate table.
func NewRoutingTable() RoutingTable { return make(RoutingTable) }

// Insert appends r under key, after checking every existing key for the
// overlap condition of spec.md §4.1: same Stream overlap AND an existing
// route at the same (service, priority) whose window overlaps r's. When
// allowOverlap is false and a conflict is found, the row is rejected
// (ok=false) and the scan stops at the first conflict, the way the source
// "break[s] out of the per-key scan" (spec.md §4.1).
func (t RoutingTable) Insert(key stream.Stream, r route.Route, allowOverlap bool) (ok bool) {
	if !allowOverlap {
		for existingKey, routes := range t {
			if !key.Overlap(existingKey) {
				continue
			}
			for _, existing := range routes {
				if existing.Overlaps(r) {
					return false
				}
			}
		}
	}
	t[key] = append(t[key], r)
	return true
}

// SortAll re-establishes the ascending-priority invariant across every
// bucket; called once after a document (or a full ingest pass) finishes
// (spec.md §4.1: "After the whole document, sort every list ascending by
// priority").
func (t RoutingTable) SortAll() {
	for k := range t {
		sort.Stable(route.ByPriority(t[k]))
		routes := t[k]
		debug.AssertFunc(func() bool { return isAscendingPriority(routes) }, "routetable: priority invariant violated for key ", k)
	}
}

func isAscendingPriority(routes []route.Route) bool {
	for i := 1; i < len(routes); i++ {
		if routes[i-1].Priority > routes[i].Priority {
			return false
		}
	}
	return true
}

// CandidateKeys returns every table key overlapping s, the first step of
// per-service resolution (spec.md §4.5(a)).
func (t RoutingTable) CandidateKeys(s stream.Stream) []stream.Stream {
	keys := make([]stream.Stream, 0, 4)
	for k := range t {
		if k.Overlap(s) {
			keys = append(keys, k)
		}
	}
	return keys
}
