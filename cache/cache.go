// Package cache owns the compiled routing snapshot and its refresh
// lifecycle (spec.md §4.3): UNLOADED -> LOADING -> READY -> REFRESHING ->
// READY. Every transition into READY is a single atomic pointer swap, so a
// query in flight sees one consistent snapshot for its entire lifetime
// (spec.md §5).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cache

import (
	"context"
	"os"
	"path/filepath"
	ratomic "sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"github.com/eida/routingcore/cmn/cos"
	"github.com/eida/routingcore/cmn/nlog"
	"github.com/eida/routingcore/config"
	"github.com/eida/routingcore/ingest"
	"github.com/eida/routingcore/route"
	"github.com/eida/routingcore/routetable"
	"github.com/eida/routingcore/stationbuild"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// State is one point of the lifecycle spec.md §4.3 names.
type State int32

const (
	Unloaded State = iota
	Loading
	Ready
	Refreshing
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "UNLOADED"
	case Loading:
		return "LOADING"
	case Ready:
		return "READY"
	case Refreshing:
		return "REFRESHING"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is the compiled tuple (RoutingTable, StationCache,
// VirtualNetworkTable, DataCentreRegistry) query operations read against
// (spec.md §3 "Ownership").
type Snapshot struct {
	RT         routetable.RoutingTable
	VNT        routetable.VirtualNetworkTable
	SC         *routetable.StationCache
	DCReg      routetable.DataCentreRegistry
	Generation string
}

// persisted is the on-disk shape of a Snapshot (spec.md §6 "Persisted
// snapshot"). Stream keys serialize natively via stream.Stream's
// MarshalText/UnmarshalText; the station cache's spatial index is rebuilt
// on load rather than persisted.
type persisted struct {
	RT         routetable.RoutingTable               `json:"routing_table"`
	VNT        routetable.VirtualNetworkTable         `json:"virtual_networks"`
	SC         map[string]map[string][]route.Station `json:"station_cache"`
	DCReg      routetable.DataCentreRegistry          `json:"datacentres"`
	Generation string                                 `json:"generation"`
}

// RoutingCache is the explicitly-constructed, request-handler-owned
// replacement for a process-wide singleton (spec.md §9 "re-architect as an
// explicitly-constructed cache instance").
type RoutingCache struct {
	state    ratomic.Int32
	snapshot ratomic.Pointer[Snapshot]

	routingFile  string
	dataDir      string
	peers        []config.Peer
	allowOverlap bool
	registry     routetable.DataCentreRegistry
}

// New constructs a cache bound to routingFile (the primary local XML source
// of truth), dataDir (where fetched peer documents land), the configured
// peer list, and the overlap policy. The cache starts UNLOADED.
func New(routingFile, dataDir string, peers []config.Peer, allowOverlap bool, registry routetable.DataCentreRegistry) *RoutingCache {
	return &RoutingCache{
		routingFile:  routingFile,
		dataDir:      dataDir,
		peers:        peers,
		allowOverlap: allowOverlap,
		registry:     registry,
	}
}

// State reports the cache's current lifecycle point.
func (c *RoutingCache) State() State {
	return State(c.state.Load())
}

// Snapshot returns the currently published snapshot, or nil if the cache has
// never reached READY.
func (c *RoutingCache) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

func (c *RoutingCache) binPath() string {
	return c.routingFile + ".bin"
}

// Update loads or (re)builds the compiled snapshot and publishes it with a
// single atomic pointer swap (spec.md §4.3). The first call transitions
// UNLOADED -> LOADING -> READY; every subsequent call is functionally
// identical but is reported as READY -> REFRESHING -> READY. A failing
// update leaves the previously published snapshot, if any, untouched
// (spec.md §5 "a failing refresh leaves the previous snapshot intact").
func (c *RoutingCache) Update(ctx context.Context) error {
	wasReady := c.State() == Ready
	if wasReady {
		c.state.Store(int32(Refreshing))
	} else {
		c.state.Store(int32(Loading))
	}

	snap, err := c.load(ctx)
	if err != nil {
		nlog.Errorf("cache: update failed, keeping previous snapshot: %v", err)
		if wasReady {
			c.state.Store(int32(Ready))
		} else {
			c.state.Store(int32(Unloaded))
		}
		return err
	}

	c.snapshot.Store(snap)
	c.state.Store(int32(Ready))
	return nil
}

// load implements the update() sequence of spec.md §4.3: try the persisted
// snapshot first, falling back to a full ingest-and-rebuild pass.
func (c *RoutingCache) load(ctx context.Context) (*Snapshot, error) {
	if snap, err := c.loadPersisted(); err == nil {
		return snap, nil
	}
	return c.rebuild(ctx)
}

func (c *RoutingCache) loadPersisted() (*Snapshot, error) {
	data, err := os.ReadFile(c.binPath())
	if err != nil {
		return nil, err
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, cos.ErrSnapshotCorrupt
	}
	sc, err := routetable.LoadSnapshot(p.SC)
	if err != nil {
		return nil, err
	}
	return &Snapshot{RT: p.RT, VNT: p.VNT, SC: sc, DCReg: p.DCReg, Generation: p.Generation}, nil
}

// rebuild ingests the primary file and every present peer file, warms the
// station cache, then serializes and atomically replaces the snapshot
// (spec.md §4.3 step 2).
func (c *RoutingCache) rebuild(ctx context.Context) (*Snapshot, error) {
	rt := routetable.NewRoutingTable()
	vnt := routetable.NewVirtualNetworkTable()

	if err := c.ingestPrimaryWithRecovery(rt, vnt); err != nil {
		nlog.Errorf("cache: primary ingest failed even after .bck recovery: %v", err)
		// spec.md §4.3: "ingest returns an empty table" - rt/vnt stay empty,
		// but peers and station-cache build still proceed below.
	}

	for _, p := range c.peers {
		c.ingestPeerIfPresent(p, rt, vnt)
	}

	sc := routetable.NewStationCache()
	if err := stationbuild.Build(ctx, rt, sc); err != nil {
		nlog.Warningf("cache: station cache build: %v", err)
	}

	snap := &Snapshot{RT: rt, VNT: vnt, SC: sc, DCReg: c.registry, Generation: cos.GenUUID()}
	if err := c.persist(snap); err != nil {
		nlog.Warningf("cache: failed to persist compiled snapshot: %v", err)
	}
	return snap, nil
}

// ingestPrimaryWithRecovery implements spec.md §4.3 step 3: on a genuine
// parse failure, the primary file is quarantined as ".wrong" and its ".bck"
// companion is promoted back into place for a single retry.
func (c *RoutingCache) ingestPrimaryWithRecovery(rt routetable.RoutingTable, vnt routetable.VirtualNetworkTable) error {
	err := ingestFile(c.routingFile, rt, vnt, c.allowOverlap)
	if err == nil {
		return nil
	}
	clear(rt) // drop rows ingested before the parse error
	clear(vnt)
	nlog.Warningf("cache: primary routing file %s failed to parse: %v", c.routingFile, err)

	wrong := c.routingFile + ".wrong"
	os.Remove(wrong)
	if err := os.Rename(c.routingFile, wrong); err != nil {
		nlog.Warningf("cache: could not quarantine %s: %v", c.routingFile, err)
	}
	if err := os.Rename(c.routingFile+".bck", c.routingFile); err != nil {
		nlog.Warningf("cache: no .bck to promote for %s: %v", c.routingFile, err)
		return err
	}
	if err := ingestFile(c.routingFile, rt, vnt, c.allowOverlap); err != nil {
		clear(rt)
		clear(vnt)
		return err
	}
	return nil
}

func (c *RoutingCache) ingestPeerIfPresent(p config.Peer, rt routetable.RoutingTable, vnt routetable.VirtualNetworkTable) {
	path := filepath.Join(c.dataDir, p.DCID+".xml")
	if _, err := os.Stat(path); err != nil {
		return // spec.md §4.3: only peers "whose fetched file is present" are ingested
	}
	if err := ingestFile(path, rt, vnt, c.allowOverlap); err != nil {
		nlog.Warningf("cache: peer %s (%s) ingest failed, skipping: %v", p.DCID, path, err)
	}
}

func ingestFile(path string, rt routetable.RoutingTable, vnt routetable.VirtualNetworkTable, allowOverlap bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = ingest.Document(f, rt, vnt, allowOverlap)
	return err
}

// persist serializes snap and atomically replaces the on-disk snapshot
// using the rotating-triple pattern of spec.md §5: write to ".download",
// fsync, unlink ".bck", rename live -> ".bck", rename ".download" -> live.
func (c *RoutingCache) persist(snap *Snapshot) error {
	p := persisted{
		RT: snap.RT, VNT: snap.VNT, SC: snap.SC.Snapshot(), DCReg: snap.DCReg, Generation: snap.Generation,
	}
	data, err := json.Marshal(&p)
	if err != nil {
		return err
	}

	live := c.binPath()
	download := live + ".download"
	if err := os.WriteFile(download, data, 0o644); err != nil {
		return err
	}
	if f, err := os.Open(download); err == nil {
		f.Sync()
		f.Close()
	}

	os.Remove(live + ".bck")
	os.Rename(live, live+".bck")
	return os.Rename(download, live)
}
