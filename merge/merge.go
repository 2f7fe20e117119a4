// Package merge groups query results by (service, URL) the way the query
// engine's response must be shaped: one entry per endpoint, carrying a list
// of the stream/window/priority rows matched against it (spec.md §4.6).
//
// The original grouped its response by subclassing list/dict; spec.md §9
// flags that as requiring re-architecture. RequestMerge here is an explicit
// aggregate type instead: Append/Extend/IndexOf plus a read-only Entries
// view, no structural collection subtyping.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package merge

import (
	"time"

	"github.com/eida/routingcore/stream"
)

// Param is one matched (stream, window, priority) row under an Entry.
type Param struct {
	Net      string
	Sta      string
	Loc      string
	Cha      string
	Start    *time.Time
	End      *time.Time
	Priority int
}

// Entry groups every Param matched against a single (service, url) endpoint.
type Entry struct {
	Service string
	URL     string
	Params  []Param
}

// RequestMerge accumulates Entries, deduplicating by (Service, URL).
type RequestMerge struct {
	entries []Entry
}

// New returns an empty RequestMerge.
func New() *RequestMerge {
	return &RequestMerge{}
}

// Append records one matched route. If an Entry for (service, url) already
// exists its Params grow by one row; otherwise a new Entry is created.
func (m *RequestMerge) Append(service, url string, priority int, st stream.Stream, tw stream.TimeWindow) {
	p := Param{Net: st.N, Sta: st.S, Loc: st.L, Cha: st.C, Start: tw.Start, End: tw.End, Priority: priority}
	if i := m.IndexOf(service, url); i >= 0 {
		m.entries[i].Params = append(m.entries[i].Params, p)
		return
	}
	m.entries = append(m.entries, Entry{Service: service, URL: url, Params: []Param{p}})
}

// Extend merges every Entry of other into m, preserving the same
// dedup-by-(service,url) rule Append applies.
func (m *RequestMerge) Extend(other *RequestMerge) {
	for _, e := range other.entries {
		for _, p := range e.Params {
			st := stream.New(p.Net, p.Sta, p.Loc, p.Cha)
			tw, _ := stream.NewTimeWindow(p.Start, p.End)
			m.Append(e.Service, e.URL, p.Priority, st, tw)
		}
	}
}

// IndexOf returns the position of the (service, url) Entry, or -1.
func (m *RequestMerge) IndexOf(service, url string) int {
	for i, e := range m.entries {
		if e.Service == service && e.URL == url {
			return i
		}
	}
	return -1
}

// Entries is a read-only view over the accumulated groups.
func (m *RequestMerge) Entries() []Entry {
	return m.entries
}

// Len reports how many distinct (service, url) groups have been recorded.
func (m *RequestMerge) Len() int {
	return len(m.entries)
}
