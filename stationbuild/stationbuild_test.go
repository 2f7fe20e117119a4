package stationbuild_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/eida/routingcore/route"
	"github.com/eida/routingcore/routetable"
	"github.com/eida/routingcore/stationbuild"
	"github.com/eida/routingcore/stream"
)

var _ = Describe("Build", func() {
	It("parses a pipe-separated station-text response into the cache", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("#Network|Station|Latitude|Longitude|Elevation|SiteName|StartTime|EndTime\r\n" +
				"GE|APE|37.0|25.5|620.0|Apirathos|2003-01-01T00:00:00|\r\n" +
				"\r\n"))
		}))
		defer srv.Close()

		rt := routetable.NewRoutingTable()
		key := stream.New("GE", "APE", "*", "BHZ")
		rt.Insert(key, route.Route{Service: route.Station, Address: srv.URL + "/", Priority: 1, TW: stream.Unbounded}, false)

		cache := routetable.NewStationCache()
		Expect(stationbuild.Build(context.Background(), rt, cache)).To(Succeed())

		stations := cache.Stations(hostOf(srv.URL), key)
		Expect(stations).To(HaveLen(1))
		Expect(stations[0].Name).To(Equal("APE"))
		Expect(stations[0].Latitude).To(BeNumerically("~", 37.0, 0.001))
		Expect(stations[0].Longitude).To(BeNumerically("~", 25.5, 0.001))
	})

	It("degrades to an empty list when the endpoint is unreachable", func() {
		rt := routetable.NewRoutingTable()
		key := stream.New("XX", "YYY", "*", "*")
		rt.Insert(key, route.Route{Service: route.Station, Address: "http://127.0.0.1:1/", Priority: 1, TW: stream.Unbounded}, false)

		cache := routetable.NewStationCache()
		Expect(stationbuild.Build(context.Background(), rt, cache)).To(Succeed())
		Expect(cache.Stations("127.0.0.1:1", key)).To(BeEmpty())
	})

	It("caches the station list under every host routed for the stream key, not just the station route's own host", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("GE|APE|37.0|25.5|620.0|Apirathos|2003-01-01T00:00:00|\r\n"))
		}))
		defer srv.Close()

		rt := routetable.NewRoutingTable()
		key := stream.New("GE", "APE", "*", "BHZ")
		rt.Insert(key, route.Route{Service: route.Station, Address: srv.URL + "/", Priority: 1, TW: stream.Unbounded}, false)
		rt.Insert(key, route.Route{Service: route.Dataselect, Address: "http://dataselect.example.org/", Priority: 1, TW: stream.Unbounded}, false)

		cache := routetable.NewStationCache()
		Expect(stationbuild.Build(context.Background(), rt, cache)).To(Succeed())

		stations := cache.Stations("dataselect.example.org", key)
		Expect(stations).To(HaveLen(1))
		Expect(stations[0].Name).To(Equal("APE"))
		Expect(cache.Stations(hostOf(srv.URL), key)).To(Equal(stations))
	})

	It("ignores non-station services entirely", func() {
		rt := routetable.NewRoutingTable()
		key := stream.New("GE", "*", "*", "*")
		rt.Insert(key, route.Route{Service: route.Dataselect, Address: "http://example.org/", Priority: 1, TW: stream.Unbounded}, false)

		cache := routetable.NewStationCache()
		Expect(stationbuild.Build(context.Background(), rt, cache)).To(Succeed())
		Expect(cache.Stations("example.org", key)).To(BeNil())
	})
})

func hostOf(rawURL string) string {
	const prefix = "http://"
	return rawURL[len(prefix):]
}
