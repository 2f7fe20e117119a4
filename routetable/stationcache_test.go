package routetable_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/eida/routingcore/route"
	"github.com/eida/routingcore/routetable"
	"github.com/eida/routingcore/stream"
)

var _ = Describe("StationCache", func() {
	key := stream.New("GE", "APE", "*", "BHZ")

	It("returns nil, not an error, for an unknown host", func() {
		c := routetable.NewStationCache()
		Expect(c.Stations("nowhere", key)).To(BeNil())
	})

	It("round-trips stations under (host, key)", func() {
		c := routetable.NewStationCache()
		stations := []route.Station{{Name: "APE", Latitude: 37.0, Longitude: 25.5}}
		c.Put("geofon.gfz-potsdam.de", key, stations)
		Expect(c.Stations("geofon.gfz-potsdam.de", key)).To(Equal(stations))
	})

	It("filters by geoRectangle inclusively", func() {
		c := routetable.NewStationCache()
		stations := []route.Station{{Name: "APE", Latitude: 37.0, Longitude: 25.5}}
		c.Put("geofon.gfz-potsdam.de", key, stations)

		inside := route.GeoRectangle{MinLat: 0, MaxLat: 90, MinLon: 0, MaxLon: 90}
		Expect(c.StationsInRect("geofon.gfz-potsdam.de", key, inside)).To(HaveLen(1))

		outside := route.GeoRectangle{MinLat: 40, MaxLat: 90, MinLon: 0, MaxLon: 90}
		Expect(c.StationsInRect("geofon.gfz-potsdam.de", key, outside)).To(BeEmpty())
	})

	It("snapshots and reloads", func() {
		c := routetable.NewStationCache()
		stations := []route.Station{{Name: "APE", Latitude: 37.0, Longitude: 25.5}}
		c.Put("geofon.gfz-potsdam.de", key, stations)

		reloaded, err := routetable.LoadSnapshot(c.Snapshot())
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.Stations("geofon.gfz-potsdam.de", key)).To(Equal(stations))
	})
})
