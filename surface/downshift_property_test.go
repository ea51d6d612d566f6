package surface

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func sortedSet(weights []float64) *Set {
	sorted := append([]float64(nil), weights...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return setOf(sorted...)
}

func TestDownshiftProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	weights := gen.SliceOf(gen.Float64Range(0, 10))
	maxCounts := gen.IntRange(1, 8)
	minWeights := gen.Float64Range(0, 0.5)

	properties.Property("output never exceeds maxCount", prop.ForAll(
		func(ws []float64, maxCount int, minWeight float64) bool {
			s := sortedSet(ws)
			s.Downshift(maxCount, minWeight, 1)
			return s.Len() <= maxCount
		},
		weights, maxCounts, minWeights,
	))

	properties.Property("anchor weight is unchanged", prop.ForAll(
		func(ws []float64, maxCount int, minWeight float64) bool {
			s := sortedSet(ws)
			if s.Len() == 0 || s.Items[0].Weight < minWeight {
				return true
			}
			top := s.Items[0].Weight
			s.Downshift(maxCount, minWeight, 1)
			return s.Len() > 0 && s.Items[0].Weight == top
		},
		weights, maxCounts, minWeights,
	))

	properties.Property("cutoff weight maps to zero", prop.ForAll(
		func(ws []float64, maxCount int, minWeight float64) bool {
			s := sortedSet(ws)
			kept := 0
			for _, o := range s.Items {
				if o.Weight >= minWeight {
					kept++
				}
			}
			if kept <= maxCount {
				return true
			}
			boundary := s.Items[maxCount].Weight
			if s.Items[0].Weight-boundary < 1e-2 {
				return true
			}
			shift := s.Downshift(maxCount, minWeight, 1)
			mapped := shift.Apply(boundary)
			return mapped < 1e-4 && mapped > -1e-4
		},
		weights, maxCounts, minWeights,
	))

	properties.Property("surviving order is preserved", prop.ForAll(
		func(ws []float64, maxCount int, minWeight float64) bool {
			s := sortedSet(ws)
			s.Downshift(maxCount, minWeight, 1)
			for i := 1; i < s.Len(); i++ {
				if s.Items[i].Weight > s.Items[i-1].Weight {
					return false
				}
				if s.Items[i].SurfaceTypeID < s.Items[i-1].SurfaceTypeID {
					return false
				}
			}
			return true
		},
		weights, maxCounts, minWeights,
	))

	properties.TestingRun(t)
}
