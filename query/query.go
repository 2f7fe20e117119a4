// Package query implements getRoute (spec.md §4.5): virtual-network
// expansion, per-service candidate resolution, priority/overlap pruning,
// station-cache intersection and geo-filtering, grouped into a
// merge.RequestMerge.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package query

import (
	"net/url"
	"sort"
	"strings"

	"github.com/eida/routingcore/cmn/cos"
	"github.com/eida/routingcore/cmn/nlog"
	"github.com/eida/routingcore/merge"
	"github.com/eida/routingcore/route"
	"github.com/eida/routingcore/routetable"
	"github.com/eida/routingcore/stream"
)

// Request bundles getRoute's parameters (spec.md §4.5).
type Request struct {
	Stream      stream.Stream
	TW          stream.TimeWindow
	Services    []route.Service
	GeoLoc      *route.GeoRectangle
	Alternative bool
}

// NormalizeService maps a case-insensitive service name to its Service
// constant, as the front-end's CSV "service" query parameter requires.
func NormalizeService(name string) (route.Service, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dataselect":
		return route.Dataselect, true
	case "station":
		return route.Station, true
	case "wfcatalog":
		return route.WFCatalog, true
	case "availability":
		return route.Availability, true
	default:
		return "", false
	}
}

// GetRoute resolves req against rt/vnt/cache into a grouped response. It
// fails with an ErrContent-wrapped error when either the virtual-network
// expansion or the final accumulated response is empty (spec.md §4.5,
// §7 ContentError). An empty req.Services means all four service kinds.
func GetRoute(rt routetable.RoutingTable, vnt routetable.VirtualNetworkTable, cache *routetable.StationCache, req Request) (*merge.RequestMerge, error) {
	expansion := expand(vnt, req.Stream, req.TW)
	if len(expansion) == 0 {
		return nil, cos.NewContentErr("no routes found for %s", req.Stream)
	}

	services := req.Services
	if len(services) == 0 {
		services = []route.Service{route.Dataselect, route.Station, route.WFCatalog, route.Availability}
	}

	result := merge.New()
	for _, e := range expansion {
		for _, svc := range services {
			resolveService(rt, cache, e.stream, e.tw, svc, req.Alternative, req.GeoLoc, result)
		}
	}

	if result.Len() == 0 {
		return nil, cos.NewContentErr("no routes found for %s", req.Stream)
	}
	return result, nil
}

type expansionEntry struct {
	stream stream.Stream
	tw     stream.TimeWindow
}

// expand performs step 1 of getRoute: virtual-network expansion. A
// non-virtual network code is passed through as the sole entry.
func expand(vnt routetable.VirtualNetworkTable, st stream.Stream, tw stream.TimeWindow) []expansionEntry {
	if !vnt.IsVirtual(st.N) {
		return []expansionEntry{{stream: st, tw: tw}}
	}
	probe := stream.New(stream.Wildcard, st.S, st.L, st.C)
	var out []expansionEntry
	for _, m := range vnt[st.N] {
		narrowed, ok := stream.StrictMatch(m.Pattern, probe)
		if !ok {
			nlog.Infof("query: vnet %s member %s does not narrow %s, dropping", st.N, m.Pattern, probe)
			continue
		}
		itw, ok := m.TW.Intersection(tw)
		if !ok {
			nlog.Infof("query: vnet %s member %s window does not overlap request, dropping", st.N, m.Pattern)
			continue
		}
		out = append(out, expansionEntry{stream: narrowed, tw: itw})
	}
	return out
}

type candidate struct {
	key   stream.Stream
	route route.Route
}

// resolveService runs steps 2(a)-2(e) of getRoute for one expansion entry
// and one requested service.
func resolveService(rt routetable.RoutingTable, cache *routetable.StationCache, st stream.Stream, tw stream.TimeWindow, svc route.Service, alternative bool, geo *route.GeoRectangle, result *merge.RequestMerge) {
	working := candidateRoutes(rt, st, tw, svc, alternative)
	accepted := pruneOverlaps(working, alternative)
	for _, c := range accepted {
		emit(cache, st, tw, svc, c, geo, result)
	}
}

// candidateRoutes implements steps 2(a)-2(c): candidate keys, candidate
// routes filtered by service+window overlap, and priority selection.
func candidateRoutes(rt routetable.RoutingTable, st stream.Stream, tw stream.TimeWindow, svc route.Service, alternative bool) []candidate {
	var working []candidate
	for _, key := range rt.CandidateKeys(st) {
		var matching []route.Route
		for _, r := range rt[key] {
			if r.Service == svc && r.TW.Overlap(tw) {
				matching = append(matching, r)
			}
		}
		if len(matching) == 0 {
			continue
		}
		if !alternative {
			// rt[key] is kept priority-ascending by SortAll, so the first
			// match is already the lowest-priority route.
			working = append(working, candidate{key: key, route: matching[0]})
			continue
		}
		for _, r := range matching {
			working = append(working, candidate{key: key, route: r})
		}
	}
	return working
}

// pruneOverlaps implements step 2(d): priority-ascending walk, rejecting a
// candidate whose stream and window both overlap an already-accepted one.
// Under alternative routing the rejection only fires on an exact priority
// tie, so distinct priorities from distinct data centres both survive.
func pruneOverlaps(working []candidate, alternative bool) []candidate {
	sort.SliceStable(working, func(i, j int) bool {
		return working[i].route.Priority < working[j].route.Priority
	})
	var accepted []candidate
	for _, c := range working {
		if conflictsWithAccepted(c, accepted, alternative) {
			continue
		}
		accepted = append(accepted, c)
	}
	return accepted
}

func conflictsWithAccepted(c candidate, accepted []candidate, alternative bool) bool {
	for _, a := range accepted {
		if !c.key.Overlap(a.key) || !c.route.TW.Overlap(a.route.TW) {
			continue
		}
		if alternative && c.route.Priority != a.route.Priority {
			continue
		}
		return true
	}
	return false
}

// emit implements step 2(e): walks the remaining time-window set against
// the candidate's route window, consulting the station cache only when a
// geographic filter is in play (spec.md §4.5: "If geoLoc is absent, one
// emission per accepted (st,rt) suffices").
func emit(cache *routetable.StationCache, queryStream stream.Stream, queryTW stream.TimeWindow, svc route.Service, c candidate, geo *route.GeoRectangle, result *merge.RequestMerge) {
	remaining := []stream.TimeWindow{queryTW}
	host := hostOf(c.route.Address)

	for len(remaining) > 0 {
		w := remaining[0]
		remaining = remaining[1:]

		if !c.route.TW.Contains(w) {
			continue // route's window does not cover w: drop it
		}
		for _, gap := range w.Difference(c.route.TW) {
			if gap == w {
				continue // skip identity
			}
			remaining = append(remaining, gap)
		}

		inter, ok := w.Intersection(c.route.TW)
		if !ok {
			continue
		}

		narrowed, ok := stream.StrictMatch(queryStream, c.key)
		if !ok {
			continue
		}

		if geo == nil {
			result.Append(string(svc), c.route.Address, c.route.Priority, narrowed, inter)
			continue
		}
		for _, st := range cache.StationsInRect(host, c.key, *geo) {
			if !queryStream.MatchesStation(st.Name) {
				continue
			}
			stationStream := narrowed
			stationStream.S = st.Name
			result.Append(string(svc), c.route.Address, c.route.Priority, stationStream, inter)
		}
	}
}

func hostOf(address string) string {
	u, err := url.Parse(address)
	if err != nil {
		return ""
	}
	return u.Host
}
