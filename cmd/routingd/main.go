// Package main is the routing cache's assembly-pipeline daemon: it loads
// routing.cfg, builds the RoutingCache, and refreshes it on a timer. The
// HTTP front-end that serves /query, /localconfig, /globalconfig and the
// rest (spec.md §6) is an external collaborator and is not implemented here.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eida/routingcore/cache"
	"github.com/eida/routingcore/cmn/nlog"
	"github.com/eida/routingcore/config"
	"github.com/eida/routingcore/routetable"
)

var (
	build string

	configPath   string
	dataDir      string
	refreshEvery time.Duration
)

func init() {
	flag.StringVar(&configPath, "config", "routing.cfg", "path to routing.cfg")
	flag.StringVar(&dataDir, "data-dir", ".", "directory holding the primary routing XML and fetched peer files")
	flag.DurationVar(&refreshEvery, "refresh", 10*time.Minute, "refresh period for the compiled routing snapshot")
}

func main() {
	flag.Parse()
	installSignalHandler()

	f, err := os.Open(configPath)
	if err != nil {
		nlog.Errorf("routingd: cannot open %s: %v", configPath, err)
		os.Exit(1)
	}
	cfg, err := config.Parse(f)
	f.Close()
	if err != nil {
		nlog.Errorf("routingd: cannot parse %s: %v", configPath, err)
		os.Exit(1)
	}

	routingFile := filepath.Join(dataDir, "routing.xml")
	rc := cache.New(routingFile, dataDir, cfg.Synchronize, cfg.AllowOverlap, routetable.DefaultRegistry)

	nlog.Infof("routingd %s: loading %s (baseurl=%s, %d peers)", build, routingFile, cfg.BaseURL, len(cfg.Synchronize))
	if err := rc.Update(context.Background()); err != nil {
		nlog.Errorf("routingd: initial load failed: %v", err)
		os.Exit(1)
	}
	nlog.Infof("routingd: ready, generation=%s", rc.Snapshot().Generation)

	refreshLoop(rc)
}

// refreshLoop re-runs RoutingCache.Update on a fixed period. A failing
// refresh only logs: the cache keeps serving its last good snapshot
// (spec.md §4.3, §7 "Refresh failures are suppressed to log entries").
func refreshLoop(rc *cache.RoutingCache) {
	ticker := time.NewTicker(refreshEvery)
	defer ticker.Stop()
	for range ticker.C {
		if err := rc.Update(context.Background()); err != nil {
			nlog.Warningf("routingd: refresh failed, keeping generation %s: %v", rc.Snapshot().Generation, err)
			continue
		}
		nlog.Infof("routingd: refreshed, generation=%s", rc.Snapshot().Generation)
	}
}

func installSignalHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-c
		nlog.Infof("routingd: shutting down")
		os.Exit(0)
	}()
}
