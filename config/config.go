// Package config loads routing.cfg, the service's INI configuration
// (spec.md §6). No example repo in this codebase's lineage carries an INI
// parser dependency, so this is a deliberately small hand-rolled
// bufio.Scanner reader rather than a third-party library wired in for its
// own sake (see DESIGN.md).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eida/routingcore/cmn/nlog"
)

// Peer is one synchronize-line entry: a data-centre id and the base URL to
// fetch its routing document from.
type Peer struct {
	DCID string
	URL  string
}

// Config is the parsed [Service] section of routing.cfg (spec.md §6).
type Config struct {
	BaseURL      string
	Synchronize  []Peer
	AllowOverlap bool
	Info         string
}

const sectionService = "Service"

// Parse reads an INI document from r, keeping only the [Service] section.
// Lines starting with ';' or '#' are comments; keys and values are split on
// the first '='. A peer in "synchronize" whose url equals baseurl is
// dropped — a data centre is never its own peer (SPEC_FULL.md §5, grounded
// on the original's self-reference guard).
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	section := ""
	sc := bufio.NewScanner(r)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		if section != sectionService {
			continue
		}
		key, value, ok := splitKV(line)
		if !ok {
			// a continuation line of a multiline "synchronize" value
			applySynchronizeLine(cfg, line)
			continue
		}
		switch strings.ToLower(key) {
		case "baseurl":
			cfg.BaseURL = value
		case "allowoverlap":
			b, err := strconv.ParseBool(value)
			if err != nil {
				nlog.Warningf("config: bad allowoverlap value %q, defaulting to false", value)
				b = false
			}
			cfg.AllowOverlap = b
		case "info":
			cfg.Info = value
		case "synchronize":
			if value != "" {
				applySynchronizeLine(cfg, value)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Synchronize = dropSelfReference(cfg.Synchronize, cfg.BaseURL)
	return cfg, nil
}

func splitKV(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

// applySynchronizeLine parses one "dcid,url" pair and appends it.
func applySynchronizeLine(cfg *Config, line string) {
	parts := strings.SplitN(line, ",", 2)
	if len(parts) != 2 {
		nlog.Warningf("config: skipping malformed synchronize line %q", line)
		return
	}
	cfg.Synchronize = append(cfg.Synchronize, Peer{
		DCID: strings.TrimSpace(parts[0]),
		URL:  strings.TrimSpace(parts[1]),
	})
}

// dropSelfReference removes any peer whose url equals this instance's own
// baseurl (SPEC_FULL.md §5): a misconfigured synchronize list must not make
// the service fetch its own routing file as a peer.
func dropSelfReference(peers []Peer, baseURL string) []Peer {
	if baseURL == "" {
		return peers
	}
	out := peers[:0]
	for _, p := range peers {
		if p.URL == baseURL {
			nlog.Warningf("config: dropping self-referential peer %s (%s)", p.DCID, p.URL)
			continue
		}
		out = append(out, p)
	}
	return out
}
