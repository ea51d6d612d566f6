// Package resolve turns a single contact into candidate surface outputs.
package resolve

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"surfacefx/contact"
	"surfacefx/surface"
	"surfacefx/surface/catalog"
)

// Strategy records which classification path produced a candidate set.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyTypeOverride
	StrategyBlendOverride
	StrategyTerrain
	StrategyMaterialBlend
	StrategyKeyword
)

func (s Strategy) String() string {
	switch s {
	case StrategyTypeOverride:
		return "type_override"
	case StrategyBlendOverride:
		return "blend_override"
	case StrategyTerrain:
		return "terrain"
	case StrategyMaterialBlend:
		return "material_blend"
	case StrategyKeyword:
		return "keyword"
	default:
		return "none"
	}
}

// Outcome describes how a Resolve call classified the contact.
type Outcome struct {
	Strategy Strategy
	// Defaulted is set when nothing resolved and the default type was substituted.
	Defaulted bool
}

// Snapshotter supplies the catalog view used for one resolution.
type Snapshotter interface {
	Snapshot() *catalog.Snapshot
}

// Resolver classifies contacts against a surface catalog. It holds no
// per-call state; results are written into caller-owned sets.
type Resolver struct {
	catalog Snapshotter
}

// New returns a Resolver reading from cat.
func New(cat Snapshotter) *Resolver {
	return &Resolver{catalog: cat}
}

// Resolve resets dst and fills it with the candidates for d, substituting the
// default surface type at weight 1 when nothing matched. maxOutputCount bounds
// the blend and terrain paths to maxOutputCount+1 outputs so a later downshift
// has one entry past the cutoff to fade against.
//
// dst is owned by the caller and must not be shared with another Resolve call
// that is still being consumed.
func (r *Resolver) Resolve(d contact.Descriptor, maxOutputCount int, dst *surface.Set) Outcome {
	var snap *catalog.Snapshot
	if r != nil && r.catalog != nil {
		snap = r.catalog.Snapshot()
	}
	return ResolveSnapshot(snap, d, maxOutputCount, dst)
}

// ResolveSnapshot is Resolve against an explicit catalog snapshot.
func ResolveSnapshot(snap *catalog.Snapshot, d contact.Descriptor, maxOutputCount int, dst *surface.Set) Outcome {
	dst.Reset()
	outcome := Outcome{Strategy: Candidates(snap, d, maxOutputCount, dst)}
	if dst.Len() == 0 {
		if def := snap.Default(); def >= 0 {
			dst.Add(surface.NewOutput(def, 1))
			outcome.Defaulted = true
		}
	}
	dst.HitNormal = d.Normal
	dst.Hardness = weightedHardness(snap, dst)
	return outcome
}

// Candidates appends the raw classification of d to dst without default
// substitution. The returned strategy is the path that decided the result even
// when that path produced no outputs.
func Candidates(snap *catalog.Snapshot, d contact.Descriptor, maxOutputCount int, dst *surface.Set) Strategy {
	if maxOutputCount < 0 {
		maxOutputCount = 0
	}
	limit := maxOutputCount + 1
	s := d.Surface

	switch s.Marker.Kind {
	case contact.MarkerType:
		if id, ok := lookupReference(snap, s.Marker.Reference); ok {
			dst.Add(surface.NewOutput(id, 1))
		}
		return StrategyTypeOverride
	case contact.MarkerBlend:
		if submesh, ok := struckSubmesh(d); ok {
			if table, ok := s.Marker.SubmeshTable(submesh); ok {
				addBlends(snap, table, limit, dst)
				return StrategyBlendOverride
			}
		}
		if len(s.Marker.Blends) > 0 {
			addBlends(snap, s.Marker.Blends, limit, dst)
			return StrategyBlendOverride
		}
	}

	if s.Terrain != nil {
		addTerrain(snap, s.Terrain, d.Point, limit, dst)
		return StrategyTerrain
	}

	material := s.PrimaryMaterial()
	if submesh, ok := struckSubmesh(d); ok {
		if name, ok := s.Material(submesh); ok {
			material = name
		}
	}
	if table, ok := snap.MaterialBlends(material); ok {
		addBlends(snap, table, limit, dst)
		return StrategyMaterialBlend
	}
	if id, ok := snap.MatchKeyword(material); ok {
		dst.Add(surface.NewOutput(id, 1))
	}
	return StrategyKeyword
}

func struckSubmesh(d contact.Descriptor) (int, bool) {
	if d.Surface.Mesh == nil || !d.HasTriangle() {
		return -1, false
	}
	return d.Surface.Mesh.Submesh(d.Triangle.Index)
}

// lookupReference accepts either a surface type ID or a name matched by keyword.
func lookupReference(snap *catalog.Snapshot, reference string) (int, bool) {
	if id, ok := snap.IndexOf(reference); ok {
		return id, true
	}
	return snap.MatchKeyword(reference)
}

func addBlends(snap *catalog.Snapshot, blends []surface.Blend, limit int, dst *surface.Set) {
	count := min(len(blends), limit)
	for _, blend := range blends[:count] {
		id, ok := lookupReference(snap, blend.Reference)
		if !ok {
			id = snap.Default()
		}
		if id < 0 {
			continue
		}
		dst.Accumulate(blend.Output(id))
	}
}

func addTerrain(snap *catalog.Snapshot, terrain contact.Terrain, point mgl64.Vec3, limit int, dst *surface.Set) {
	mix := terrain.TextureMix(point)
	ceiling := math.Inf(1)
	last := -1
	for dst.Len() < limit {
		layer, value := nextLayer(mix, ceiling, last)
		if layer < 0 {
			return
		}
		ceiling, last = value, layer

		id, ok := snap.MatchTexture(terrain.LayerTexture(layer))
		if !ok {
			continue
		}
		dst.Accumulate(surface.NewOutput(id, value))
	}
}

// nextLayer returns the strongest layer ordered after (ceiling, last): layers
// are visited by descending mix and, among equal mixes, ascending index, so
// ties are each extracted exactly once. Empty layers are never returned.
func nextLayer(mix []float64, ceiling float64, last int) (int, float64) {
	best, bestValue := -1, 0.0
	for i, v := range mix {
		if v <= 0 || v > ceiling || (v == ceiling && i <= last) {
			continue
		}
		if v > bestValue {
			best, bestValue = i, v
		}
	}
	return best, bestValue
}

func weightedHardness(snap *catalog.Snapshot, set *surface.Set) float64 {
	var sum, weight float64
	for _, o := range set.Items {
		sum += o.Weight * snap.Hardness(o.SurfaceTypeID)
		weight += o.Weight
	}
	if weight <= 0 {
		return 1
	}
	return sum / weight
}
