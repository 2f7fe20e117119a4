package routetable

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/buntdb"

	"github.com/eida/routingcore/cmn/cos"
	"github.com/eida/routingcore/cmn/nlog"
	"github.com/eida/routingcore/route"
	"github.com/eida/routingcore/stream"
)

// StationCache maps an endpoint host (the authority portion of a route's
// URL) to, for every Stream key that appeared in the routing table, the
// stations that endpoint serves (spec.md §3, §4.4). Buckets are dispatched
// by cos.HashHostStr rather than the literal host string, the same
// uuid.go-adjacent hashing helper the routing snapshot's generation id comes
// from. A host's stations are also mirrored into a per-host buntdb spatial
// index so the query engine's geo-filter (spec.md §4.5(e)) is a bounded-box
// range query instead of a linear scan over every cached station.
type StationCache struct {
	mu    sync.RWMutex
	hosts map[string]*hostStations
}

type hostStations struct {
	host     string                     // literal endpoint host, kept for Hosts()/Snapshot()
	byStream map[string][]route.Station // stream.Stream.String() -> stations
	geo      *buntdb.DB                 // spatial index over every station ever Put for this host
	byKey    map[string]route.Station   // composite geo key -> station, for Intersects lookups
}

// bucketKey is the host map's actual key: the host hashed via cos.HashHostStr
// for O(1) dispatch, rather than a variable-length host string comparison.
func bucketKey(host string) string { return cos.HashHostStr(host) }

const geoIndexName = "geo"

func newHostStations(host string) *hostStations {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		// buntdb's in-memory backend cannot fail to open; degrade to a
		// host with no spatial index rather than abort the whole build.
		nlog.Errorf("stationcache: buntdb open failed: %v", err)
		db = nil
	} else if err := db.CreateSpatialIndex(geoIndexName, "*", buntdb.IndexRect); err != nil {
		nlog.Errorf("stationcache: buntdb spatial index failed: %v", err)
	}
	return &hostStations{
		host:     host,
		byStream: make(map[string][]route.Station),
		geo:      db,
		byKey:    make(map[string]route.Station),
	}
}

// NewStationCache returns an empty cache.
func NewStationCache() *StationCache {
	return &StationCache{hosts: make(map[string]*hostStations)}
}

func compositeKey(key stream.Stream, st route.Station) string {
	return key.String() + "\x00" + st.Name
}

// Put records stations as the resolved list for (host, key), overwriting any
// prior entry for that exact pair. Called once per (endpoint, stream key)
// by the station-cache builder, then again for every other host that shares
// routes for the same key (spec.md §4.4 "store the same resolved station
// list under that host").
func (c *StationCache) Put(host string, key stream.Stream, stations []route.Station) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bk := bucketKey(host)
	hs, ok := c.hosts[bk]
	if !ok {
		hs = newHostStations(host)
		c.hosts[bk] = hs
	}
	prev := hs.byStream[key.String()]
	hs.byStream[key.String()] = stations

	if hs.geo == nil {
		return
	}
	err := hs.geo.Update(func(tx *buntdb.Tx) error {
		for _, st := range prev {
			k := compositeKey(key, st)
			delete(hs.byKey, k)
			if _, err := tx.Delete(k); err != nil && err != buntdb.ErrNotFound {
				return err
			}
		}
		for _, st := range stations {
			k := compositeKey(key, st)
			hs.byKey[k] = st
			rect := fmt.Sprintf("[%f %f]", st.Longitude, st.Latitude)
			if _, _, err := tx.Set(k, rect, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		nlog.Errorf("stationcache: index update failed for host %s: %v", host, err)
	}
}

// Stations returns the cached list for (host, key), or nil if the cache has
// nothing for that pair — never an error, per spec.md §4.4's "degrade to
// empty station list" policy.
func (c *StationCache) Stations(host string, key stream.Stream) []route.Station {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hs, ok := c.hosts[bucketKey(host)]
	if !ok {
		return nil
	}
	return hs.byStream[key.String()]
}

// StationsInRect narrows Stations(host, key) to those whose coordinates lie
// within rect, using the per-host spatial index when available and falling
// back to a linear scan otherwise (spec.md §4.5(e)).
func (c *StationCache) StationsInRect(host string, key stream.Stream, rect route.GeoRectangle) []route.Station {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hs, ok := c.hosts[bucketKey(host)]
	if !ok {
		return nil
	}
	if hs.geo == nil {
		return linearGeoFilter(hs.byStream[key.String()], rect)
	}

	prefix := key.String() + "\x00"
	bounds := fmt.Sprintf("[%f %f],[%f %f]", rect.MinLon, rect.MinLat, rect.MaxLon, rect.MaxLat)
	var out []route.Station
	err := hs.geo.View(func(tx *buntdb.Tx) error {
		return tx.Intersects(geoIndexName, bounds, func(k, _ string) bool {
			if strings.HasPrefix(k, prefix) {
				out = append(out, hs.byKey[k])
			}
			return true
		})
	})
	if err != nil {
		nlog.Errorf("stationcache: spatial query failed: %v", err)
		return linearGeoFilter(hs.byStream[key.String()], rect)
	}
	return out
}

func linearGeoFilter(stations []route.Station, rect route.GeoRectangle) []route.Station {
	out := make([]route.Station, 0, len(stations))
	for _, st := range stations {
		if rect.Contains(st.Latitude, st.Longitude) {
			out = append(out, st)
		}
	}
	return out
}

// Hosts returns every host with at least one cached entry, used by snapshot
// serialization.
func (c *StationCache) Hosts() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.hosts))
	for _, hs := range c.hosts {
		out = append(out, hs.host)
	}
	return out
}

// Snapshot returns a plain map suitable for JSON marshaling: host -> stream
// key string -> stations. The spatial index is rebuilt on load rather than
// persisted.
func (c *StationCache) Snapshot() map[string]map[string][]route.Station {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]map[string][]route.Station, len(c.hosts))
	for _, hs := range c.hosts {
		m := make(map[string][]route.Station, len(hs.byStream))
		for k, v := range hs.byStream {
			m[k] = v
		}
		out[hs.host] = m
	}
	return out
}

// LoadSnapshot rebuilds a StationCache (including spatial indexes) from the
// plain map produced by Snapshot.
func LoadSnapshot(data map[string]map[string][]route.Station) (*StationCache, error) {
	c := NewStationCache()
	for host, byStream := range data {
		for keyStr, stations := range byStream {
			key, ok := ParseStreamKey(keyStr)
			if !ok {
				return nil, fmt.Errorf("stationcache: invalid stream key %q in snapshot", keyStr)
			}
			c.Put(host, key, stations)
		}
	}
	return c, nil
}

// ParseStreamKey is the inverse of Stream.String() ("N.S.L.C").
func ParseStreamKey(s string) (stream.Stream, bool) {
	return stream.Parse(s)
}
