package surface

import "math"

// DownshiftEpsilon keeps the remap denominator away from zero when the
// boundary weight equals the anchor.
const DownshiftEpsilon = 1e-7

// AnchorPolicy selects the fixed point of the downshift remap.
type AnchorPolicy int

const (
	// AnchorTop pins the largest surviving weight.
	AnchorTop AnchorPolicy = iota
	// AnchorUnit pins weight 1 regardless of the set's contents.
	AnchorUnit
)

// DownshiftPolicy parameterises Downshift.
type DownshiftPolicy struct {
	Anchor  AnchorPolicy
	Epsilon float64
}

// DefaultDownshiftPolicy anchors at the top weight with DownshiftEpsilon.
func DefaultDownshiftPolicy() DownshiftPolicy {
	return DownshiftPolicy{Anchor: AnchorTop, Epsilon: DownshiftEpsilon}
}

// Shift is the affine remap applied by a downshift: w -> (w-Anchor)*Mult + Anchor.
// The zero Shift is the identity.
type Shift struct {
	Anchor float64
	Mult   float64
}

// Apply remaps a single weight.
func (sh Shift) Apply(w float64) float64 {
	if sh.Mult == 0 {
		return w
	}
	return (w-sh.Anchor)*sh.Mult + sh.Anchor
}

// Downshift truncates the set to maxCount outputs and remaps the survivors so
// that the weight at the cutoff lands on zero while the anchor stays put. As an
// output drifts across the cutoff over successive ticks its displayed weight
// fades through zero instead of jumping.
//
// The set must already be sorted by descending weight; an unsorted set yields
// meaningless weights. Every weight is first scaled by mult and outputs below
// minWeight are dropped.
func (s *Set) Downshift(maxCount int, minWeight, mult float64) Shift {
	return s.DownshiftWith(DefaultDownshiftPolicy(), maxCount, minWeight, mult)
}

// DownshiftWith is Downshift with an explicit anchor policy.
func (s *Set) DownshiftWith(policy DownshiftPolicy, maxCount int, minWeight, mult float64) Shift {
	if s == nil {
		return Shift{}
	}
	kept := s.Items[:0]
	for _, o := range s.Items {
		o.Weight *= mult
		if o.Weight < minWeight {
			continue
		}
		kept = append(kept, o)
	}
	s.Items = kept

	if len(s.Items) == 0 {
		return Shift{}
	}
	if maxCount < 0 {
		maxCount = 0
	}

	anchor := s.Items[0].Weight
	if policy.Anchor == AnchorUnit {
		anchor = 1
	}

	lower := minWeight
	if len(s.Items) > maxCount {
		lower = math.Max(lower, s.Items[maxCount].Weight)
		clear(s.Items[maxCount:])
		s.Items = s.Items[:maxCount]
	}
	lower -= policy.Epsilon

	span := anchor - lower
	if span <= 0 {
		return Shift{}
	}
	shift := Shift{Anchor: anchor, Mult: anchor / span}
	for i := range s.Items {
		s.Items[i].Weight = shift.Apply(s.Items[i].Weight)
	}
	return shift
}
