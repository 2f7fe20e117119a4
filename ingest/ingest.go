// Package ingest streams a routing XML document (spec.md §4.1, §6) into a
// RoutingTable and VirtualNetworkTable. Documents are consumed element by
// element: each <route>/<vnetwork> subtree is decoded into a small local
// struct and discarded, so memory use stays bounded regardless of document
// size (spec.md §2 "streaming parse").
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ingest

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/eida/routingcore/cmn/cos"
	"github.com/eida/routingcore/cmn/nlog"
	"github.com/eida/routingcore/route"
	"github.com/eida/routingcore/routetable"
	"github.com/eida/routingcore/stream"
)

type xmlAttrService struct {
	XMLName xml.Name
	Address string `xml:"address,attr"`
	Start   string `xml:"start,attr"`
	End     string `xml:"end,attr"`
	Prio    string `xml:"priority,attr"`
}

type xmlRoute struct {
	Network  string           `xml:"networkCode,attr"`
	Station  string           `xml:"stationCode,attr"`
	Location string           `xml:"locationCode,attr"`
	Channel  string           `xml:"streamCode,attr"`
	Services []xmlAttrService `xml:",any"`
}

type xmlVMember struct {
	Network  string `xml:"networkCode,attr"`
	Station  string `xml:"stationCode,attr"`
	Location string `xml:"locationCode,attr"`
	Channel  string `xml:"streamCode,attr"`
	Start    string `xml:"start,attr"`
	End      string `xml:"end,attr"`
}

type xmlVNetwork struct {
	Network string       `xml:"networkCode,attr"`
	Members []xmlVMember `xml:",any"`
}

// Result reports what a single ingest pass skipped, for logging; it never
// aborts ingest on its own account (spec.md §7 IngestWarning).
type Result struct {
	Warnings *cos.Errs
}

// Document ingests r into rt/vnt in place. A true I/O or XML syntax error on
// the token stream abandons the document, returning the tables unchanged up
// to that point (spec.md §4.1 "any I/O or parse error abandons ingest").
// A malformed individual <route>/<vnetwork> is skipped with a warning and
// does not abort the rest of the document.
func Document(r io.Reader, rt routetable.RoutingTable, vnt routetable.VirtualNetworkTable, allowOverlap bool) (Result, error) {
	res := Result{Warnings: &cos.Errs{}}
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("ingest: token stream: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "route":
			var xr xmlRoute
			if err := dec.DecodeElement(&xr, &start); err != nil {
				res.Warnings.Add(fmt.Errorf("route %s: %w", start.Name.Local, err))
				nlog.Warningf("ingest: malformed route element: %v", err)
				continue
			}
			ingestRoute(xr, rt, allowOverlap, res.Warnings)
		case "vnetwork":
			var xv xmlVNetwork
			if err := dec.DecodeElement(&xv, &start); err != nil {
				res.Warnings.Add(fmt.Errorf("vnetwork: %w", err))
				nlog.Warningf("ingest: malformed vnetwork element: %v", err)
				continue
			}
			ingestVNetwork(xv, vnt, res.Warnings)
		}
	}

	rt.SortAll()
	return res, nil
}

func ingestRoute(xr xmlRoute, rt routetable.RoutingTable, allowOverlap bool, warn *cos.Errs) {
	key := stream.New(xr.Network, xr.Station, xr.Location, xr.Channel)
	if key.HasForbiddenWildcard() {
		warn.Add(fmt.Errorf("route %s: '?' wildcard is forbidden", key))
		nlog.Warningf("ingest: rejecting route %s: '?' is forbidden", key)
		return
	}

	for _, svc := range xr.Services {
		if svc.Address == "" {
			continue // missing/empty address: skip this service row, not the whole route
		}
		start, ok := stream.ParseISO(svc.Start)
		if !ok {
			start = nil
		}
		end, ok := stream.ParseISO(svc.End)
		if !ok {
			end = nil
		}
		tw, ok := stream.NewTimeWindow(start, end)
		if !ok {
			warn.Add(fmt.Errorf("route %s/%s: start after end", key, svc.XMLName.Local))
			continue
		}
		r := route.Route{
			Service:  route.Service(svc.XMLName.Local),
			Address:  svc.Address,
			TW:       tw,
			Priority: parsePriority(svc.Prio),
		}
		if !rt.Insert(key, r, allowOverlap) {
			warn.Add(fmt.Errorf("route %s: overlapping %s priority %d rejected", key, r.Service, r.Priority))
			nlog.Warningf("ingest: dropping overlapping route %s %s prio=%d addr=%s", key, r.Service, r.Priority, r.Address)
		}
	}
}

func parsePriority(s string) int {
	if s == "" {
		return route.DefaultPriority
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return route.DefaultPriority
	}
	return n
}

func ingestVNetwork(xv xmlVNetwork, vnt routetable.VirtualNetworkTable, warn *cos.Errs) {
	if xv.Network == "" {
		return // skipped silently, per spec.md §4.1
	}
	for _, m := range xv.Members {
		member := stream.New(m.Network, m.Station, m.Location, m.Channel)
		if !member.HasOnlyStarWildcards() {
			warn.Add(fmt.Errorf("vnetwork %s: member %s uses a non-'*' wildcard", xv.Network, member))
			nlog.Warningf("ingest: vnetwork %s: rejecting member %s (non-'*' wildcard)", xv.Network, member)
			continue
		}
		start, okStart := stream.ParseISO(m.Start)
		end, okEnd := stream.ParseISO(m.End)
		if !okStart || !okEnd {
			// SPEC_FULL.md §6: a parse failure rejects the member rather
			// than silently treating it as unbounded.
			warn.Add(fmt.Errorf("vnetwork %s: member %s has an unparseable time bound", xv.Network, member))
			continue
		}
		tw, ok := stream.NewTimeWindow(start, end)
		if !ok {
			warn.Add(fmt.Errorf("vnetwork %s: member %s has start after end", xv.Network, member))
			continue
		}
		vnt.Add(xv.Network, routetable.VNetMember{Pattern: member, TW: tw})
	}
}
