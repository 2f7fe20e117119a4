package ingest_test

import (
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/eida/routingcore/ingest"
	"github.com/eida/routingcore/route"
	"github.com/eida/routingcore/routetable"
	"github.com/eida/routingcore/stream"
)

const scenarioA = `<routing>
  <route networkCode="GE" stationCode="*" locationCode="*" streamCode="*">
    <dataselect address="http://geofon.gfz-potsdam.de/fdsnws/dataselect/1/" priority="1"/>
  </route>
</routing>`

var _ = Describe("Document", func() {
	It("ingests a single route with default priority handling (scenario A)", func() {
		rt := routetable.NewRoutingTable()
		vnt := routetable.NewVirtualNetworkTable()
		_, err := ingest.Document(strings.NewReader(scenarioA), rt, vnt, false)
		Expect(err).NotTo(HaveOccurred())

		key := stream.New("GE", "*", "*", "*")
		Expect(rt[key]).To(HaveLen(1))
		Expect(rt[key][0].Service).To(Equal(route.Dataselect))
		Expect(rt[key][0].Priority).To(Equal(1))
	})

	It("rejects a route with a '?' wildcard but continues the document (scenario-adjacent)", func() {
		doc := `<routing>
		  <route networkCode="G?" stationCode="*" locationCode="*" streamCode="*">
		    <dataselect address="http://a/" />
		  </route>
		  <route networkCode="GE" stationCode="*" locationCode="*" streamCode="*">
		    <dataselect address="http://b/" />
		  </route>
		</routing>`
		rt := routetable.NewRoutingTable()
		vnt := routetable.NewVirtualNetworkTable()
		_, err := ingest.Document(strings.NewReader(doc), rt, vnt, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(rt).To(HaveLen(1))
	})

	It("defaults empty/missing priority to 99", func() {
		doc := `<routing>
		  <route networkCode="GE" stationCode="*" locationCode="*" streamCode="*">
		    <dataselect address="http://a/" priority=""/>
		  </route>
		</routing>`
		rt := routetable.NewRoutingTable()
		vnt := routetable.NewVirtualNetworkTable()
		ingest.Document(strings.NewReader(doc), rt, vnt, false)
		key := stream.New("GE", "*", "*", "*")
		Expect(rt[key][0].Priority).To(Equal(route.DefaultPriority))
	})

	It("rejects the second of two same-priority overlapping routes (scenario D)", func() {
		doc := `<routing>
		  <route networkCode="GE" stationCode="*" locationCode="*" streamCode="*">
		    <dataselect address="http://a/" priority="1"/>
		  </route>
		  <route networkCode="GE" stationCode="*" locationCode="*" streamCode="*">
		    <dataselect address="http://b/" priority="1"/>
		  </route>
		</routing>`
		rt := routetable.NewRoutingTable()
		vnt := routetable.NewVirtualNetworkTable()
		res, _ := ingest.Document(strings.NewReader(doc), rt, vnt, false)
		key := stream.New("GE", "*", "*", "*")
		Expect(rt[key]).To(HaveLen(1))
		Expect(rt[key][0].Address).To(Equal("http://a/"))
		Expect(res.Warnings.Cnt()).To(BeNumerically(">", 0))
	})

	It("skips a vnetwork with no networkCode silently", func() {
		doc := `<routing><vnetwork networkCode=""><net stationCode="APE"/></vnetwork></routing>`
		rt := routetable.NewRoutingTable()
		vnt := routetable.NewVirtualNetworkTable()
		_, err := ingest.Document(strings.NewReader(doc), rt, vnt, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(vnt).To(BeEmpty())
	})

	It("ingests virtual-network members (scenario C)", func() {
		doc := `<routing>
		  <vnetwork networkCode="_GEALL">
		    <net stationCode="APE"/>
		    <net stationCode="KARP" start="2015-01-01"/>
		  </vnetwork>
		</routing>`
		rt := routetable.NewRoutingTable()
		vnt := routetable.NewVirtualNetworkTable()
		ingest.Document(strings.NewReader(doc), rt, vnt, false)
		Expect(vnt.IsVirtual("_GEALL")).To(BeTrue())
		Expect(vnt["_GEALL"]).To(HaveLen(2))
	})

	It("rejects a vnetwork member using a non-'*' wildcard mixture", func() {
		doc := `<routing>
		  <vnetwork networkCode="_X">
		    <net networkCode="A*" stationCode="APE"/>
		  </vnetwork>
		</routing>`
		rt := routetable.NewRoutingTable()
		vnt := routetable.NewVirtualNetworkTable()
		ingest.Document(strings.NewReader(doc), rt, vnt, false)
		Expect(vnt["_X"]).To(BeEmpty())
	})
})
