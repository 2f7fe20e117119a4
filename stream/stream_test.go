package stream_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/eida/routingcore/stream"
)

var _ = Describe("Stream", func() {
	It("defaults empty components to the wildcard", func() {
		s := stream.New("GE", "", "", "BHZ")
		Expect(s).To(Equal(stream.Stream{N: "GE", S: "*", L: "*", C: "BHZ"}))
	})

	It("rejects '?' anywhere", func() {
		Expect(stream.New("G?", "*", "*", "*").HasForbiddenWildcard()).To(BeTrue())
		Expect(stream.New("GE", "*", "*", "*").HasForbiddenWildcard()).To(BeFalse())
	})

	It("contains is componentwise shell matching", func() {
		pattern := stream.New("GE", "*", "*", "*")
		Expect(pattern.Contains(stream.New("GE", "APE", "*", "BHZ"))).To(BeTrue())
		Expect(pattern.Contains(stream.New("II", "APE", "*", "BHZ"))).To(BeFalse())
	})

	It("overlap is symmetric", func() {
		a := stream.New("GE", "APE", "*", "*")
		b := stream.New("GE", "*", "*", "BHZ")
		Expect(a.Overlap(b)).To(BeTrue())
		Expect(b.Overlap(a)).To(BeTrue())
	})

	It("StrictMatch narrows and rejects conflicting literals", func() {
		a := stream.New("*", "APE", "*", "*")
		b := stream.New("GE", "*", "*", "BHZ")
		narrowed, ok := stream.StrictMatch(a, b)
		Expect(ok).To(BeTrue())
		Expect(narrowed).To(Equal(stream.New("GE", "APE", "*", "BHZ")))

		_, ok = stream.StrictMatch(stream.New("GE", "*", "*", "*"), stream.New("II", "*", "*", "*"))
		Expect(ok).To(BeFalse())
	})

	It("StrictMatch is commutative on symmetric inputs", func() {
		a := stream.New("*", "APE", "*", "BHZ")
		b := stream.New("GE", "*", "*", "*")
		ab, okAB := stream.StrictMatch(a, b)
		ba, okBA := stream.StrictMatch(b, a)
		Expect(okAB).To(Equal(okBA))
		Expect(ab).To(Equal(ba))
	})

	It("HasOnlyStarWildcards accepts only the literal '*' wildcard", func() {
		Expect(stream.New("*", "APE", "*", "*").HasOnlyStarWildcards()).To(BeTrue())
		Expect(stream.New("A*", "APE", "*", "*").HasOnlyStarWildcards()).To(BeFalse())
	})
})
