// Package stationbuild warms a StationCache from the "station" routes of a
// freshly-ingested RoutingTable (spec.md §4.4). One endpoint, one stream key,
// one FDSN station-text query; failures degrade to an empty list rather than
// aborting the cache build.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stationbuild

import (
	"bufio"
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"

	"github.com/eida/routingcore/cmn/nlog"
	"github.com/eida/routingcore/route"
	"github.com/eida/routingcore/routetable"
	"github.com/eida/routingcore/stream"
)

const (
	requestTimeout  = 15 * time.Second
	politenessDelay = 1 * time.Second
	politenessHost  = "ingv.it"
)

var httpClient = &fasthttp.Client{
	Name: "routingcore-stationbuild",
}

// Build issues one FDSN station-text query per (endpoint, stream) pair drawn
// from rt's "station" routes and populates cache. The resulting station list
// is stored under every host that appears among rt[key]'s routes across all
// services, not just the "station" route's own host: dataselect/station/etc.
// commonly live on distinct sub-hosts of the same data centre, and
// query.emit looks the cache up keyed by whichever service route it is
// evaluating (spec.md §4.4 "Indexing", matching original_source's
// cacheStations()). Queries for distinct endpoints run concurrently; queries
// against the same host are not additionally serialized beyond the
// politeness delay each one pays on its way out.
func Build(ctx context.Context, rt routetable.RoutingTable, cache *routetable.StationCache) error {
	group, gctx := errgroup.WithContext(ctx)
	for key, routes := range rt {
		key, routes := key, routes
		hosts := routeHosts(routes)
		for _, r := range routes {
			if r.Service != route.Station {
				continue
			}
			r := r
			group.Go(func() error {
				host, err := hostOf(r.Address)
				if err != nil {
					nlog.Warningf("stationbuild: %s: %v", r.Address, err)
					return nil
				}
				politeWait(gctx, host)
				stations := fetchStations(gctx, r, key)
				for _, h := range hosts {
					cache.Put(h, key, stations)
				}
				return nil
			})
		}
	}
	return group.Wait()
}

// routeHosts collects the distinct endpoint hosts among routes, across all
// services, so a stream key's station list can be cached under each of them.
func routeHosts(routes []route.Route) []string {
	var hosts []string
	seen := make(map[string]bool)
	for _, r := range routes {
		host, err := hostOf(r.Address)
		if err != nil || host == "" || seen[host] {
			continue
		}
		seen[host] = true
		hosts = append(hosts, host)
	}
	return hosts
}

func hostOf(address string) (string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

func politeWait(ctx context.Context, host string) {
	if !strings.Contains(host, politenessHost) {
		return
	}
	select {
	case <-time.After(politenessDelay):
	case <-ctx.Done():
	}
}

// fetchStations performs the single station-text GET for r/key and parses
// the response. Any failure (network, timeout, unparseable body) yields an
// empty slice rather than propagating an error: a dead station endpoint
// must not block the rest of the cache build (spec.md §4.4).
func fetchStations(ctx context.Context, r route.Route, key stream.Stream) []route.Station {
	u, err := buildQueryURL(r, key)
	if err != nil {
		nlog.Warningf("stationbuild: %s: %v", r.Address, err)
		return nil
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := time.Now().Add(requestTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := httpClient.DoDeadline(req, resp, deadline); err != nil {
		nlog.Warningf("stationbuild: %s: %v", u, err)
		return nil
	}
	if resp.StatusCode() >= 400 {
		nlog.Warningf("stationbuild: %s: status %d", u, resp.StatusCode())
		return nil
	}
	return parseStationText(string(resp.Body()))
}

func buildQueryURL(r route.Route, key stream.Stream) (string, error) {
	q := url.Values{}
	q.Set("format", "text")
	q.Set("net", key.N)
	q.Set("sta", key.S)
	if r.TW.Start != nil {
		q.Set("start", r.TW.Start.Format(time.RFC3339))
	}
	if r.TW.End != nil {
		q.Set("end", r.TW.End.Format(time.RFC3339))
	}
	base := strings.TrimSuffix(r.Address, "/") + "/query"
	return base + "?" + q.Encode(), nil
}

// parseStationText reads an FDSN station-text response: pipe-separated
// fields, '#'-prefixed comment lines, and CRLF or blank-line padding all
// tolerated (spec.md §5, original_source station-text reader). Column
// indices (0-based): 1 station code, 2 latitude, 3 longitude, 6 start,
// 7 end.
func parseStationText(body string) []route.Station {
	var out []route.Station
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 8 {
			nlog.Warningf("stationbuild: skipping malformed station line: %q", line)
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			nlog.Warningf("stationbuild: bad latitude %q: %v", fields[2], err)
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			nlog.Warningf("stationbuild: bad longitude %q: %v", fields[3], err)
			continue
		}
		start, _ := stream.ParseISO(strings.TrimSpace(fields[6]))
		end, _ := stream.ParseISO(strings.TrimSpace(fields[7]))
		out = append(out, route.Station{
			Name:      strings.TrimSpace(fields[1]),
			Latitude:  lat,
			Longitude: lon,
			Start:     start,
			End:       end,
		})
	}
	return out
}
