package surface

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Set is an ordered collection of weighted outputs for one contact or one
// aggregated tick. HitNormal and Hardness travel with the outputs to the
// audio/particle consumer.
//
// A Set is a plain value owned by whoever created it. Resolvers write into a
// caller-supplied *Set and never retain it.
type Set struct {
	Items     []Output
	HitNormal mgl64.Vec3
	Hardness  float64
}

// NewSet allocates a set with room for capacity outputs.
func NewSet(capacity int) *Set {
	if capacity < 0 {
		capacity = 0
	}
	return &Set{Items: make([]Output, 0, capacity)}
}

// Len reports the number of outputs.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// Reset empties the set while keeping its backing storage.
func (s *Set) Reset() {
	if s == nil {
		return
	}
	s.Items = s.Items[:0]
	s.HitNormal = mgl64.Vec3{}
	s.Hardness = 0
}

// Add appends an output without merging.
func (s *Set) Add(o Output) {
	s.Items = append(s.Items, o)
}

// Index returns the position of the first output with the given key or -1.
func (s *Set) Index(key Key) int {
	for i := range s.Items {
		if s.Items[i].Key() == key {
			return i
		}
	}
	return -1
}

// Accumulate merges o into the set: when an output with the same key already
// exists its weight grows by o.Weight, otherwise o is appended.
func (s *Set) Accumulate(o Output) {
	if i := s.Index(o.Key()); i >= 0 {
		s.Items[i].Weight += o.Weight
		return
	}
	s.Items = append(s.Items, o)
}

// TotalWeight sums the weights of every output.
func (s *Set) TotalWeight() float64 {
	var total float64
	for i := range s.Items {
		total += s.Items[i].Weight
	}
	return total
}

// SortDescending orders outputs by weight, largest first. Equal weights keep
// their relative order.
func (s *Set) SortDescending() {
	sort.SliceStable(s.Items, func(i, j int) bool {
		return s.Items[i].Weight > s.Items[j].Weight
	})
}

// CopyFrom replaces the contents of s with src, reusing s's storage.
func (s *Set) CopyFrom(src *Set) {
	s.Items = append(s.Items[:0], src.Items...)
	s.HitNormal = src.HitNormal
	s.Hardness = src.Hardness
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() Set {
	if s == nil {
		return Set{}
	}
	clone := Set{HitNormal: s.HitNormal, Hardness: s.Hardness}
	if len(s.Items) > 0 {
		clone.Items = append([]Output(nil), s.Items...)
	}
	return clone
}
