package routetable

import "sort"

// ServiceEndpoint is one named, addressable service a data-centre repository
// exposes; used only by the FDSN projection (spec.md §3, §4.7).
type ServiceEndpoint struct {
	Name string
	URL  string
}

// Repository is one dataset-serving unit of a data centre: the services it
// exposes and the dataset names it hosts.
type Repository struct {
	Services []ServiceEndpoint
	Datasets []string
}

// DataCentre is a federation member, used only by the FDSN projection to
// attach human-facing metadata (name, website) to a routing response.
type DataCentre struct {
	Name         string
	Website      string
	Repositories []Repository
}

// DataCentreRegistry is the static eidaDCs catalogue (spec.md §3).
type DataCentreRegistry []DataCentre

// Sorted returns a copy of r ordered by Name, matching the original
// implementation's deterministic datacenters-JSON ordering (see
// SPEC_FULL.md §5).
func (r DataCentreRegistry) Sorted() DataCentreRegistry {
	out := make(DataCentreRegistry, len(r))
	copy(out, r)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindByServiceURL locates the data centre and repository whose Services
// list contains (name, url), the lookup FDSNRules uses to attach registry
// metadata the first time a response row mentions that service+URL
// (spec.md §4.7).
func (r DataCentreRegistry) FindByServiceURL(name, url string) (dc DataCentre, repo Repository, ok bool) {
	for _, d := range r {
		for _, rep := range d.Repositories {
			for _, svc := range rep.Services {
				if svc.Name == name && svc.URL == url {
					return d, rep, true
				}
			}
		}
	}
	return DataCentre{}, Repository{}, false
}

// DefaultRegistry is a minimal, real-world EIDA-member catalogue sufficient
// to exercise FDSNRules; a production deployment would load this from
// configuration instead of compiling it in.
var DefaultRegistry = DataCentreRegistry{
	{
		Name:    "GEOFON Program, GFZ Potsdam",
		Website: "https://geofon.gfz-potsdam.de",
		Repositories: []Repository{{
			Services: []ServiceEndpoint{
				{Name: "fdsnws-dataselect-1", URL: "https://geofon.gfz-potsdam.de/fdsnws/dataselect/1/"},
				{Name: "fdsnws-station-1", URL: "https://geofon.gfz-potsdam.de/fdsnws/station/1/"},
				{Name: "eidaws-wfcatalog", URL: "https://geofon.gfz-potsdam.de/eidaws/wfcatalog/1/"},
			},
			Datasets: []string{"GE"},
		}},
	},
	{
		Name:    "RESIF Datacenter",
		Website: "https://www.resif.fr",
		Repositories: []Repository{{
			Services: []ServiceEndpoint{
				{Name: "fdsnws-dataselect-1", URL: "https://ws.resif.fr/fdsnws/dataselect/1/"},
				{Name: "fdsnws-station-1", URL: "https://ws.resif.fr/fdsnws/station/1/"},
			},
			Datasets: []string{"FR", "RD"},
		}},
	},
	{
		Name:    "INGV",
		Website: "https://www.ingv.it",
		Repositories: []Repository{{
			Services: []ServiceEndpoint{
				{Name: "fdsnws-dataselect-1", URL: "https://webservices.ingv.it/fdsnws/dataselect/1/"},
				{Name: "fdsnws-station-1", URL: "https://webservices.ingv.it/fdsnws/station/1/"},
			},
			Datasets: []string{"IV"},
		}},
	},
}
