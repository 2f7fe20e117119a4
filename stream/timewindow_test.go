package stream_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/eida/routingcore/stream"
)

func mustTime(s string) *time.Time {
	t, ok := stream.ParseISO(s)
	Expect(ok).To(BeTrue())
	return t
}

func tw(start, end string) stream.TimeWindow {
	w, ok := stream.NewTimeWindow(mustTime(start), mustTime(end))
	Expect(ok).To(BeTrue())
	return w
}

var _ = Describe("ParseISO", func() {
	It("parses a full instant", func() {
		t, ok := stream.ParseISO("2020-01-01T00:00:00")
		Expect(ok).To(BeTrue())
		Expect(*t).To(Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	It("tolerates a trailing Z", func() {
		t, ok := stream.ParseISO("2020-01-01T00:00:00Z")
		Expect(ok).To(BeTrue())
		Expect(t.Year()).To(Equal(2020))
	})

	It("treats empty input as absent", func() {
		t, ok := stream.ParseISO("")
		Expect(ok).To(BeTrue())
		Expect(t).To(BeNil())
	})

	It("rejects garbage", func() {
		_, ok := stream.ParseISO("not-a-date-at-all")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("TimeWindow", func() {
	It("overlap is reflexive and symmetric", func() {
		w := tw("2020-01-01", "2020-06-01")
		Expect(w.Overlap(w)).To(BeTrue())

		other := tw("2020-05-01", "2020-12-01")
		Expect(w.Overlap(other)).To(Equal(other.Overlap(w)))
	})

	It("intersection never fails when windows overlap", func() {
		w := tw("2020-01-01", "2020-06-01")
		other := tw("2020-05-01", "2020-12-01")
		Expect(w.Overlap(other)).To(BeTrue())
		_, ok := w.Intersection(other)
		Expect(ok).To(BeTrue())
	})

	It("intersection is commutative and associative", func() {
		a := tw("2020-01-01", "2020-12-01")
		b := tw("2020-03-01", "2020-09-01")
		c := tw("2020-02-01", "2020-08-01")

		ab, _ := a.Intersection(b)
		ba, _ := b.Intersection(a)
		Expect(ab).To(Equal(ba))

		abc1, _ := ab.Intersection(c)
		bc, _ := b.Intersection(c)
		abc2, _ := a.Intersection(bc)
		Expect(abc1).To(Equal(abc2))
	})

	It("difference of a window with itself is empty", func() {
		w := tw("2020-01-01", "2020-12-01")
		Expect(w.Difference(w)).To(BeEmpty())
	})

	It("difference splits around a contained sub-window", func() {
		w := tw("2020-01-01", "2020-12-01")
		mid := tw("2020-05-01", "2020-07-01")
		parts := w.Difference(mid)
		Expect(parts).To(HaveLen(2))
	})

	It("unbounded windows overlap everything", func() {
		Expect(stream.Unbounded.Overlap(tw("2020-01-01", "2020-02-01"))).To(BeTrue())
	})
})
