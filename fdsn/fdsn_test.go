package fdsn_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/eida/routingcore/fdsn"
	"github.com/eida/routingcore/merge"
	"github.com/eida/routingcore/routetable"
	"github.com/eida/routingcore/stream"
)

var _ = Describe("Project", func() {
	It("attaches registry metadata the first time a row matches a known data centre", func() {
		rm := merge.New()
		rm.Append("dataselect", "https://geofon.gfz-potsdam.de/fdsnws/dataselect/1/query", 1,
			stream.New("GE", "APE", "*", "BHZ"), stream.Unbounded)

		resp := fdsn.Project(rm, routetable.DefaultRegistry)
		Expect(resp.Version).To(Equal(1))
		Expect(resp.DataCentres).To(HaveLen(1))
		Expect(resp.DataCentres[0].Name).To(Equal("GEOFON Program, GFZ Potsdam"))
		ds := resp.DataCentres[0].Repositories[0].Datasets[0]
		Expect(ds.Net).To(Equal("GE"))
		Expect(ds.Sta).To(Equal("APE"))
		Expect(ds.Loc).To(BeEmpty()) // "*" component omitted
	})

	It("ignores response rows that do not resolve against the registry", func() {
		rm := merge.New()
		rm.Append("dataselect", "https://unknown.example.org/fdsnws/dataselect/1/query", 1,
			stream.New("GE", "APE", "*", "BHZ"), stream.Unbounded)

		resp := fdsn.Project(rm, routetable.DefaultRegistry)
		Expect(resp.DataCentres).To(BeEmpty())
	})

	It("drops the redundant services field once a dataset covers every service a repository offers", func() {
		rm := merge.New()
		st := stream.New("FR", "OGDI", "*", "*")
		rm.Append("dataselect", "https://ws.resif.fr/fdsnws/dataselect/1/query", 1, st, stream.Unbounded)
		rm.Append("station", "https://ws.resif.fr/fdsnws/station/1/query", 1, st, stream.Unbounded)

		resp := fdsn.Project(rm, routetable.DefaultRegistry)
		Expect(resp.DataCentres).To(HaveLen(1))
		ds := resp.DataCentres[0].Repositories[0].Datasets[0]
		Expect(ds.Services).To(BeEmpty())
	})
})
