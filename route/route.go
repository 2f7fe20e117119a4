// Package route holds the Route and Station value types and the geographic
// rectangle used by the query engine's geo-filter (spec.md §3).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package route

import "github.com/eida/routingcore/stream"

// Service names the downstream service kind a Route addresses.
type Service string

const (
	Dataselect   Service = "dataselect"
	Station      Service = "station"
	WFCatalog    Service = "wfcatalog"
	Availability Service = "availability"
)

// Route maps a stream pattern (carried externally as the RoutingTable key,
// not here) and time window to a service endpoint with a priority. Lower
// Priority is preferred; two routes at equal (Service, Priority) with
// overlapping windows is the overlap condition ingest guards against
// (spec.md §3).
type Route struct {
	Service  Service
	Address  string
	TW       stream.TimeWindow
	Priority int
}

// DefaultPriority is applied when the XML ingest finds no (or an empty)
// priority attribute (spec.md §4.1).
const DefaultPriority = 99

// Overlaps reports whether r and other are the same kind of conflict ingest
// must detect: equal service, equal priority, overlapping windows. Stream-key
// overlap is checked separately by the caller (spec.md §3, §4.1).
func (r Route) Overlaps(other Route) bool {
	return r.Service == other.Service && r.Priority == other.Priority && r.TW.Overlap(other.TW)
}

// ByPriority sorts a []Route ascending by Priority, the invariant every
// RoutingTable bucket must hold after ingest (spec.md §4.1, §8 invariant 1).
type ByPriority []Route

func (b ByPriority) Len() int           { return len(b) }
func (b ByPriority) Less(i, j int) bool { return b[i].Priority < b[j].Priority }
func (b ByPriority) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
