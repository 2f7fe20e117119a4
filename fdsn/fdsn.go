// Package fdsn projects a merge.RequestMerge into the EIDA federated-catalogue
// JSON schema (spec.md §4.7): {version:1, datacenters:[...]}. Only data
// centres a response row actually mentions are copied into the output, and
// only the first time they're mentioned.
//
// The original built this by subclassing list/dict; spec.md §9 flags that
// for re-architecture. Response/DataCentre/Repository/Dataset here are
// explicit struct types instead.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package fdsn

import (
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/eida/routingcore/merge"
	"github.com/eida/routingcore/routetable"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// serviceNames maps a merge.Entry's internal service tag to the name the
// federated catalogue expects (spec.md §4.7).
var serviceNames = map[string]string{
	"dataselect":   "fdsnws-dataselect-1",
	"station":      "fdsnws-station-1",
	"availability": "fdsnws-availability-1",
	"wfcatalog":    "eidaws-wfcatalog",
}

// Dataset is one constrained stream's worth of routing under a repository.
// Net/Sta/Loc/Cha omit any component equal to "*" (spec.md §4.7); Services
// is dropped entirely once it covers every service the repository offers.
type Dataset struct {
	Services []string   `json:"services,omitempty"`
	Net      string     `json:"net,omitempty"`
	Sta      string     `json:"sta,omitempty"`
	Loc      string     `json:"loc,omitempty"`
	Cha      string     `json:"cha,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
	Priority int        `json:"priority"`
}

// Repository mirrors routetable.Repository plus the Datasets this response
// actually routed into it.
type Repository struct {
	Services []routetable.ServiceEndpoint `json:"services"`
	Datasets []Dataset                    `json:"datasets,omitempty"`
}

// DataCentre mirrors routetable.DataCentre, scoped to only the repositories
// a response row matched.
type DataCentre struct {
	Name         string       `json:"name"`
	Website      string       `json:"website"`
	Repositories []Repository `json:"repositories"`
}

// Response is the top-level federated-catalogue document.
type Response struct {
	Version     int          `json:"version"`
	DataCentres []DataCentre `json:"datacenters"`
}

// JSON marshals resp the way the front-end's /globalconfig endpoint serves
// it, via json-iterator/go rather than encoding/json.
func (resp *Response) JSON() ([]byte, error) {
	return json.Marshal(resp)
}

type datasetKey struct {
	net, sta, loc, cha string
	start, end         string
	priority           int
}

type repoBuild struct {
	dcName, dcWebsite string
	repo              routetable.Repository
	order             []datasetKey
	byKey             map[datasetKey]*Dataset
}

// Project builds the federated-catalogue Response for rm, attaching registry
// metadata the first time a response row's (service, url) resolves against
// registry (spec.md §4.7).
func Project(rm *merge.RequestMerge, registry routetable.DataCentreRegistry) *Response {
	var order []string // repo identity strings, first-seen order
	builds := make(map[string]*repoBuild)

	for _, e := range rm.Entries() {
		normName, ok := serviceNames[e.Service]
		if !ok {
			continue
		}
		strippedURL := strings.TrimSuffix(e.URL, "query")
		dc, repo, ok := registry.FindByServiceURL(normName, strippedURL)
		if !ok {
			continue
		}
		repoID := dc.Name + "\x00" + repo.Services[0].URL
		b, ok := builds[repoID]
		if !ok {
			b = &repoBuild{dcName: dc.Name, dcWebsite: dc.Website, repo: repo, byKey: make(map[datasetKey]*Dataset)}
			builds[repoID] = b
			order = append(order, repoID)
		}

		for _, p := range e.Params {
			k := datasetKey{
				net: p.Net, sta: p.Sta, loc: p.Loc, cha: p.Cha,
				start: formatTime(p.Start), end: formatTime(p.End),
				priority: p.Priority,
			}
			ds, ok := b.byKey[k]
			if !ok {
				ds = &Dataset{
					Net: omitStar(p.Net), Sta: omitStar(p.Sta), Loc: omitStar(p.Loc), Cha: omitStar(p.Cha),
					Start: p.Start, End: p.End, Priority: p.Priority,
				}
				b.byKey[k] = ds
				b.order = append(b.order, k)
			}
			if !containsStr(ds.Services, normName) {
				ds.Services = append(ds.Services, normName)
			}
		}
	}

	resp := &Response{Version: 1}
	for _, repoID := range order {
		b := builds[repoID]
		repository := Repository{Services: b.repo.Services}
		fullServiceSet := serviceNameSet(b.repo.Services)
		for _, k := range b.order {
			ds := b.byKey[k]
			if sameServiceSet(ds.Services, fullServiceSet) {
				ds.Services = nil // redundant: covers every service the repo offers
			}
			repository.Datasets = append(repository.Datasets, *ds)
		}
		resp.DataCentres = append(resp.DataCentres, DataCentre{
			Name: b.dcName, Website: b.dcWebsite, Repositories: []Repository{repository},
		})
	}
	sort.SliceStable(resp.DataCentres, func(i, j int) bool {
		return resp.DataCentres[i].Name < resp.DataCentres[j].Name
	})
	return resp
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func omitStar(component string) string {
	if component == "*" {
		return ""
	}
	return component
}

func containsStr(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func serviceNameSet(services []routetable.ServiceEndpoint) []string {
	out := make([]string, len(services))
	for i, s := range services {
		out[i] = s.Name
	}
	sort.Strings(out)
	return out
}

func sameServiceSet(a, full []string) bool {
	if len(a) != len(full) {
		return false
	}
	sorted := append([]string(nil), a...)
	sort.Strings(sorted)
	for i := range sorted {
		if sorted[i] != full[i] {
			return false
		}
	}
	return true
}
