// Package aggregate merges the candidate sets of every continuous contact seen
// during one simulation tick into a single running weighted mean.
package aggregate

import (
	"github.com/go-gl/mathgl/mgl64"

	"surfacefx/surface"
)

// MeanPolicy selects how contacts that lack an output affect it.
type MeanPolicy int

const (
	// MeanBlend folds a contact into the outputs it carries only. Every
	// attribute moves toward the contact's value by the contact's share of the
	// force seen so far, and outputs the contact lacks keep their value. The
	// result depends on contact order.
	MeanBlend MeanPolicy = iota
	// MeanDecay treats a missing output as weight zero, so weights converge to
	// Σ(f·w)/Σf over every contact and modifiers to the force-weighted mean
	// over the contacts that carried the output. Order independent.
	MeanDecay
)

// State accumulates one tick of continuous contacts. It is owned by a single
// effects instance, reset at the start of every simulation tick and finalized
// at most once before channel assignment reads it.
type State struct {
	policy MeanPolicy
	set    surface.Set
	// forces[i] is the total instantaneous force of the contacts that carried
	// set.Items[i]. MeanDecay only; invalid once Finalize reorders the set.
	forces []float64

	forceSum      float64
	weightedSpeed float64
	hardness      float64
	normal        mgl64.Vec3
	contacts      int
	finalized     bool
}

// NewState returns an empty MeanBlend state with room for capacity distinct
// outputs.
func NewState(capacity int) *State {
	return NewStateWithPolicy(capacity, MeanBlend)
}

// NewStateWithPolicy is NewState with an explicit mean policy.
func NewStateWithPolicy(capacity int, policy MeanPolicy) *State {
	if capacity < 0 {
		capacity = 0
	}
	s := &State{
		policy: policy,
		set:    surface.Set{Items: make([]surface.Output, 0, capacity)},
	}
	if policy == MeanDecay {
		s.forces = make([]float64, 0, capacity)
	}
	return s
}

// Policy reports the mean policy the state was built with.
func (s *State) Policy() MeanPolicy { return s.policy }

// Reset clears the accumulator for a new tick, keeping its storage.
func (s *State) Reset() {
	s.set.Reset()
	s.forces = s.forces[:0]
	s.forceSum = 0
	s.weightedSpeed = 0
	s.hardness = 0
	s.normal = mgl64.Vec3{}
	s.contacts = 0
	s.finalized = false
}

// Add blends one contact's candidates into the running mean. force is the
// contact's instantaneous influence and speed its sliding speed. Contacts
// with a non-positive (or NaN) force are skipped and Add reports false, as it
// does once the state has been finalized for this tick.
func (s *State) Add(candidates *surface.Set, force, speed float64) bool {
	if s.finalized || !(force > 0) {
		return false
	}
	s.contacts++
	s.forceSum += force
	s.weightedSpeed += force * speed

	influence := force / s.forceSum
	inv := 1 - influence

	if s.policy == MeanDecay {
		// Contacts without an output pull its mean weight toward zero.
		for i := range s.set.Items {
			s.set.Items[i].Weight *= inv
		}
	}

	if candidates != nil {
		for _, candidate := range candidates.Items {
			i := s.set.Index(candidate.Key())
			if i < 0 {
				added := candidate
				added.Weight = candidate.Weight * influence
				s.set.Add(added)
				if s.policy == MeanDecay {
					s.forces = append(s.forces, force)
				}
				continue
			}
			acc := &s.set.Items[i]
			if s.policy == MeanDecay {
				s.forces[i] += force
				// The weight was already decayed, so only the candidate's share
				// is added back. Modifiers use the output's own influence.
				acc.Weight += influence * candidate.Weight
				blend(acc, candidate, force/s.forces[i])
				continue
			}
			lerp(&acc.Weight, candidate.Weight, influence)
			blend(acc, candidate, influence)
		}
		s.hardness = inv*s.hardness + influence*hardnessOf(candidates)
		s.normal = s.normal.Mul(inv).Add(candidates.HitNormal.Mul(influence))
	}
	return true
}

// blend moves acc's modifiers and colour toward candidate by t.
func blend(acc *surface.Output, candidate surface.Output, t float64) {
	lerp(&acc.VolumeMultiplier, candidate.VolumeMultiplier, t)
	lerp(&acc.PitchMultiplier, candidate.PitchMultiplier, t)
	lerp(&acc.ParticleSizeMultiplier, candidate.ParticleSizeMultiplier, t)
	lerp(&acc.ParticleCountMultiplier, candidate.ParticleCountMultiplier, t)
	acc.Color = acc.Color.Mix(candidate.Color, t)
}

func lerp(from *float64, to, t float64) {
	*from += t * (to - *from)
}

func hardnessOf(set *surface.Set) float64 {
	if set.Hardness > 0 {
		return set.Hardness
	}
	return 1
}

// Finalize sorts the accumulated outputs and downshifts them to at most
// maxCount entries. It only runs once per tick; later calls report false and
// leave the outputs untouched.
func (s *State) Finalize(maxCount int, minWeight float64) bool {
	if s.finalized {
		return false
	}
	s.finalized = true
	s.forces = s.forces[:0]

	s.set.SortDescending()
	s.set.Downshift(maxCount, minWeight, 1)
	s.set.Hardness = s.hardness
	if s.contacts == 0 {
		s.set.Hardness = 1
	}
	if s.normal.Len() > 0 {
		s.set.HitNormal = s.normal.Normalize()
	}
	return true
}

// Finalized reports whether Finalize ran this tick.
func (s *State) Finalized() bool { return s.finalized }

// Outputs exposes the accumulated set. Callers must not retain it past the
// next Reset.
func (s *State) Outputs() *surface.Set { return &s.set }

// ForceSum is the summed instantaneous force of every accepted contact.
func (s *State) ForceSum() float64 { return s.forceSum }

// Contacts is the number of contacts accepted this tick.
func (s *State) Contacts() int { return s.contacts }

// Speed returns the force-weighted mean sliding speed, 0 when nothing was
// accepted.
func (s *State) Speed() float64 {
	if s.forceSum <= 0 {
		return 0
	}
	return s.weightedSpeed / s.forceSum
}
