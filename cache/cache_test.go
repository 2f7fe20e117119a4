package cache_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/eida/routingcore/cache"
	"github.com/eida/routingcore/config"
	"github.com/eida/routingcore/routetable"
	"github.com/eida/routingcore/stream"
)

const simpleRouting = `<routing>
  <route networkCode="GE" stationCode="*" locationCode="*" streamCode="*">
    <dataselect address="http://geofon.gfz-potsdam.de/fdsnws/dataselect/1/" priority="1"/>
  </route>
</routing>`

var _ = Describe("RoutingCache", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "cache-")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("starts UNLOADED and reaches READY after a fresh build, persisting a reloadable .bin", func() {
		routingFile := filepath.Join(dir, "routing.xml")
		Expect(os.WriteFile(routingFile, []byte(simpleRouting), 0o644)).To(Succeed())

		rc := cache.New(routingFile, dir, nil, false, routetable.DefaultRegistry)
		Expect(rc.State()).To(Equal(cache.Unloaded))

		Expect(rc.Update(context.Background())).To(Succeed())
		Expect(rc.State()).To(Equal(cache.Ready))

		snap := rc.Snapshot()
		Expect(snap).NotTo(BeNil())
		key := stream.New("GE", "*", "*", "*")
		Expect(snap.RT[key]).To(HaveLen(1))

		_, err := os.Stat(routingFile + ".bin")
		Expect(err).NotTo(HaveOccurred())

		rc2 := cache.New(routingFile, dir, nil, false, routetable.DefaultRegistry)
		Expect(rc2.Update(context.Background())).To(Succeed())
		snap2 := rc2.Snapshot()
		Expect(snap2.RT[key]).To(HaveLen(1))
		Expect(snap2.Generation).To(Equal(snap.Generation))
	})

	It("recovers from a corrupt primary file by promoting its .bck companion", func() {
		routingFile := filepath.Join(dir, "routing.xml")
		Expect(os.WriteFile(routingFile, []byte("<routing><route></routing>"), 0o644)).To(Succeed())
		Expect(os.WriteFile(routingFile+".bck", []byte(simpleRouting), 0o644)).To(Succeed())

		rc := cache.New(routingFile, dir, nil, false, routetable.DefaultRegistry)
		Expect(rc.Update(context.Background())).To(Succeed())
		Expect(rc.State()).To(Equal(cache.Ready))

		snap := rc.Snapshot()
		key := stream.New("GE", "*", "*", "*")
		Expect(snap.RT[key]).To(HaveLen(1))

		_, err := os.Stat(routingFile + ".wrong")
		Expect(err).NotTo(HaveOccurred())

		promoted, err := os.ReadFile(routingFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(promoted)).To(Equal(simpleRouting))
	})

	It("ingests a peer file present in the data directory alongside the primary", func() {
		routingFile := filepath.Join(dir, "routing.xml")
		Expect(os.WriteFile(routingFile, []byte(simpleRouting), 0o644)).To(Succeed())

		peerDoc := `<routing>
		  <route networkCode="FR" stationCode="*" locationCode="*" streamCode="*">
		    <dataselect address="http://ws.resif.fr/fdsnws/dataselect/1/" priority="1"/>
		  </route>
		</routing>`
		Expect(os.WriteFile(filepath.Join(dir, "RESIF.xml"), []byte(peerDoc), 0o644)).To(Succeed())

		peers := []config.Peer{{DCID: "RESIF", URL: "http://ws.resif.fr/eidaws/routing/1/"}}
		rc := cache.New(routingFile, dir, peers, false, routetable.DefaultRegistry)
		Expect(rc.Update(context.Background())).To(Succeed())

		snap := rc.Snapshot()
		Expect(snap.RT[stream.New("GE", "*", "*", "*")]).To(HaveLen(1))
		Expect(snap.RT[stream.New("FR", "*", "*", "*")]).To(HaveLen(1))
	})
})
