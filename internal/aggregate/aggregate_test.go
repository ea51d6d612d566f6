package aggregate

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surfacefx/surface"
)

func candidate(id int, weight, volume float64) *surface.Set {
	o := surface.NewOutput(id, weight)
	o.VolumeMultiplier = volume
	return &surface.Set{Items: []surface.Output{o}, Hardness: 1}
}

func TestOnlineMeanMatchesBatchMean(t *testing.T) {
	s := NewState(4)
	forces := []float64{2, 3, 5}
	values := []float64{10, 20, 30}
	for i := range forces {
		require.True(t, s.Add(candidate(0, values[i], values[i]), forces[i], values[i]))
	}

	out := s.Outputs()
	require.Equal(t, 1, out.Len())
	assert.InDelta(t, 23.0, out.Items[0].Weight, 1e-12)
	assert.InDelta(t, 23.0, out.Items[0].VolumeMultiplier, 1e-12)
	assert.InDelta(t, 23.0, s.Speed(), 1e-12)
	assert.Equal(t, 10.0, s.ForceSum())
	assert.Equal(t, 3, s.Contacts())
}

func TestAbsentOutputsKeepTheirWeight(t *testing.T) {
	s := NewState(4)
	require.True(t, s.Add(candidate(1, 1, 1), 2, 0))
	require.True(t, s.Add(candidate(2, 1, 1), 3, 0))

	out := s.Outputs()
	require.Equal(t, 2, out.Len())
	assert.InDelta(t, 1.0, out.Items[0].Weight, 1e-12)
	assert.InDelta(t, 0.6, out.Items[1].Weight, 1e-12)
}

func TestModifiersUseTickInfluence(t *testing.T) {
	s := NewState(4)
	s.Add(candidate(1, 1, 1), 2, 0)
	s.Add(candidate(2, 1, 1), 3, 0)
	s.Add(candidate(1, 1, 2), 5, 0)

	out := s.Outputs()
	require.Equal(t, 1, out.Items[0].SurfaceTypeID)
	// The third contact holds half of the tick's force.
	assert.InDelta(t, 1.5, out.Items[0].VolumeMultiplier, 1e-12)
	assert.InDelta(t, 1.0, out.Items[0].Weight, 1e-12)
	assert.InDelta(t, 0.6, out.Items[1].Weight, 1e-12)
}

func TestDecayPolicy(t *testing.T) {
	s := NewStateWithPolicy(4, MeanDecay)
	assert.Equal(t, MeanDecay, s.Policy())
	assert.Equal(t, MeanBlend, NewState(1).Policy())

	s.Add(candidate(1, 1, 1), 2, 0)
	s.Add(candidate(2, 1, 1), 3, 0)
	s.Add(candidate(1, 1, 2), 5, 0)

	out := s.Outputs()
	// Type 1 carried 7 of 10 force; its volume mean is (2·1+5·2)/7.
	assert.InDelta(t, 0.7, out.Items[0].Weight, 1e-12)
	assert.InDelta(t, 12.0/7, out.Items[0].VolumeMultiplier, 1e-12)
	assert.InDelta(t, 0.3, out.Items[1].Weight, 1e-12)

	s.Reset()
	s.Add(candidate(4, 1, 1), 1, 0)
	require.Equal(t, 1, s.Outputs().Len())
	assert.InDelta(t, 1.0, s.Outputs().Items[0].Weight, 1e-12)
}

func TestAbsentOutputsDecayTowardZero(t *testing.T) {
	s := NewStateWithPolicy(4, MeanDecay)
	s.Add(candidate(1, 1, 2), 1, 0)
	s.Add(candidate(2, 1, 1), 3, 0)

	out := s.Outputs()
	require.Equal(t, 2, out.Len())
	// Type 1 only appeared in a quarter of the force.
	assert.InDelta(t, 0.25, out.Items[0].Weight, 1e-12)
	assert.InDelta(t, 2.0, out.Items[0].VolumeMultiplier, 1e-12)
	assert.InDelta(t, 0.75, out.Items[1].Weight, 1e-12)
}

func TestOverrideIdentityKeepsOutputsApart(t *testing.T) {
	s := NewState(4)
	plain := surface.NewOutput(1, 1)
	splash := surface.NewOutput(1, 1)
	splash.OverrideID = "splash"
	s.Add(&surface.Set{Items: []surface.Output{plain, splash}}, 1, 0)
	assert.Equal(t, 2, s.Outputs().Len())
}

func TestColorBlends(t *testing.T) {
	s := NewState(2)
	red := surface.NewOutput(0, 1)
	red.Color = surface.Color{R: 1, A: 1}
	blue := surface.NewOutput(0, 1)
	blue.Color = surface.Color{B: 1, A: 1}

	s.Add(&surface.Set{Items: []surface.Output{red}}, 1, 0)
	s.Add(&surface.Set{Items: []surface.Output{blue}}, 1, 0)

	c := s.Outputs().Items[0].Color
	assert.InDelta(t, 0.5, c.R, 1e-12)
	assert.InDelta(t, 0.5, c.B, 1e-12)
	assert.InDelta(t, 1.0, c.A, 1e-12)
}

func TestDegenerateForcesAreSkipped(t *testing.T) {
	s := NewState(2)
	for _, force := range []float64{0, -1, math.NaN()} {
		assert.False(t, s.Add(candidate(0, 1, 1), force, 1))
	}
	assert.Equal(t, 0, s.Outputs().Len())
	assert.Equal(t, 0.0, s.Speed())
	assert.Equal(t, 0, s.Contacts())
}

func TestFinalizeRunsOncePerTick(t *testing.T) {
	s := NewState(4)
	s.Add(&surface.Set{
		Items: []surface.Output{
			surface.NewOutput(0, 0.2),
			surface.NewOutput(1, 1),
			surface.NewOutput(2, 0.6),
			surface.NewOutput(3, 0.4),
		},
		HitNormal: mgl64.Vec3{0, 2, 0},
		Hardness:  3,
	}, 5, 1)

	require.True(t, s.Finalize(2, 0.1))
	out := s.Outputs()
	require.Equal(t, 2, out.Len())
	assert.Equal(t, 1, out.Items[0].SurfaceTypeID)
	assert.Equal(t, 1.0, out.Items[0].Weight)
	assert.InDelta(t, 1.0/3, out.Items[1].Weight, 1e-6)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, out.HitNormal)
	assert.Equal(t, 3.0, out.Hardness)

	assert.False(t, s.Finalize(1, 0.1))
	assert.Equal(t, 2, out.Len())
	assert.False(t, s.Add(candidate(4, 1, 1), 1, 1))

	s.Reset()
	assert.False(t, s.Finalized())
	assert.Equal(t, 0, s.Outputs().Len())
	assert.True(t, s.Finalize(2, 0.1))
	assert.Equal(t, 1.0, s.Outputs().Hardness)
}

func TestDecayOrderIndependence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	run := func(forces, values []float64, ids []int, reverse bool) map[int][2]float64 {
		s := NewStateWithPolicy(4, MeanDecay)
		for n := range forces {
			i := n
			if reverse {
				i = len(forces) - 1 - n
			}
			s.Add(candidate(ids[i], values[i], values[i]), forces[i], values[i])
		}
		out := make(map[int][2]float64)
		for _, o := range s.Outputs().Items {
			out[o.SurfaceTypeID] = [2]float64{o.Weight, o.VolumeMultiplier}
		}
		return out
	}

	properties.Property("decaying mean does not depend on contact order", prop.ForAll(
		func(forces, values []float64, ids []int) bool {
			forward, backward := run(forces, values, ids, false), run(forces, values, ids, true)
			if len(forward) != len(backward) {
				return false
			}
			for id, f := range forward {
				b, ok := backward[id]
				if !ok || math.Abs(f[0]-b[0]) > 1e-9 || math.Abs(f[1]-b[1]) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(6, gen.Float64Range(0.01, 50)),
		gen.SliceOfN(6, gen.Float64Range(0, 5)),
		gen.SliceOfN(6, gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
