// Package contact describes the physics contacts handed to the surface
// engine. Everything here is produced by the host physics layer: raycasts,
// terrain sampling and submesh lookups happen outside this module.
package contact

import (
	"github.com/go-gl/mathgl/mgl64"

	"surfacefx/surface"
)

// BodyID identifies a rigid body or static collider in the host world.
type BodyID uint64

// Point is a single manifold point of a contact.
type Point struct {
	Position         mgl64.Vec3
	Normal           mgl64.Vec3
	RelativeVelocity mgl64.Vec3
	Separation       float64
}

// Descriptor is one physics contact event as reported for a single tick.
// Point, Normal and RelativeVelocity describe the primary manifold point;
// Points optionally lists every manifold point including the primary one.
type Descriptor struct {
	Body             BodyID
	Other            BodyID
	Point            mgl64.Vec3
	Normal           mgl64.Vec3
	RelativeVelocity mgl64.Vec3
	Impulse          mgl64.Vec3
	DeltaTime        float64
	Triangle         Triangle
	Points           []Point
	Surface          Surface
}

// ImpulseMagnitude returns |Impulse|.
func (d Descriptor) ImpulseMagnitude() float64 {
	return d.Impulse.Len()
}

// ManifoldPoints returns Points, or the primary point when Points is empty.
func (d Descriptor) ManifoldPoints() []Point {
	if len(d.Points) > 0 {
		return d.Points
	}
	return []Point{{Position: d.Point, Normal: d.Normal, RelativeVelocity: d.RelativeVelocity}}
}

// HasTriangle reports whether the host resolved a triangle index.
func (d Descriptor) HasTriangle() bool {
	return d.Triangle.Valid && d.Triangle.Index >= 0
}

// Triangle is the struck triangle of a mesh contact. The zero value means the
// host did not resolve one, so triangle 0 must be built with TriangleAt.
type Triangle struct {
	Index int
	Valid bool
}

// TriangleAt references a resolved triangle. Negative indices are unresolved.
func TriangleAt(index int) Triangle {
	if index < 0 {
		return Triangle{}
	}
	return Triangle{Index: index, Valid: true}
}

// MarkerKind discriminates the Marker variant.
type MarkerKind int

const (
	// MarkerNone leaves classification to terrain or material keywords.
	MarkerNone MarkerKind = iota
	// MarkerType pins the surface to a single type.
	MarkerType
	// MarkerBlend supplies a precomputed blend table.
	MarkerBlend
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerNone:
		return "none"
	case MarkerType:
		return "type"
	case MarkerBlend:
		return "blend"
	default:
		return "unknown"
	}
}

// SubmeshBlends is a blend table that applies to one submesh (material slot).
type SubmeshBlends struct {
	Submesh int
	Blends  []surface.Blend
}

// Marker is the annotation a level designer attaches to a collider. Only the
// fields of the active Kind are read.
type Marker struct {
	Kind MarkerKind

	// Reference names the type for MarkerType; it is resolved like a material name.
	Reference string

	// Blends applies to the whole collider for MarkerBlend.
	Blends []surface.Blend
	// Submeshes overrides Blends per submesh when the struck submesh is known.
	Submeshes []SubmeshBlends
}

// TypeOverride builds a MarkerType marker.
func TypeOverride(reference string) Marker {
	return Marker{Kind: MarkerType, Reference: reference}
}

// BlendOverride builds a MarkerBlend marker.
func BlendOverride(blends []surface.Blend, submeshes ...SubmeshBlends) Marker {
	return Marker{Kind: MarkerBlend, Blends: blends, Submeshes: submeshes}
}

// SubmeshTable returns the blend table configured for a submesh.
func (m Marker) SubmeshTable(submesh int) ([]surface.Blend, bool) {
	for _, sb := range m.Submeshes {
		if sb.Submesh == submesh {
			return sb.Blends, true
		}
	}
	return nil, false
}

// Terrain samples the texture layer mix of terrain-like geometry.
type Terrain interface {
	// TextureMix returns the fractional contribution of every layer at the
	// given world position. Values sum to one.
	TextureMix(position mgl64.Vec3) []float64
	// LayerTexture returns the texture name of a layer.
	LayerTexture(layer int) string
}

// Mesh maps a triangle index to the submesh that owns it.
type Mesh interface {
	Submesh(triangle int) (int, bool)
}

// Surface is everything the resolver may consult about the struck collider.
type Surface struct {
	Marker Marker
	// Terrain is non-nil for terrain-like geometry.
	Terrain Terrain
	// Mesh is non-nil for non-convex meshes whose triangles can be mapped to submeshes.
	Mesh Mesh
	// Materials lists the renderer material names, one per submesh.
	Materials []string
}

// PrimaryMaterial returns the first material name, used when the struck
// submesh cannot be determined.
func (s Surface) PrimaryMaterial() string {
	if len(s.Materials) == 0 {
		return ""
	}
	return s.Materials[0]
}

// Material returns the material of a submesh.
func (s Surface) Material(submesh int) (string, bool) {
	if submesh < 0 || submesh >= len(s.Materials) {
		return "", false
	}
	return s.Materials[submesh], true
}

// StaticTerrain is a fixed texture mix, convenient for tests and tools.
type StaticTerrain struct {
	Mix    []float64
	Layers []string
}

// TextureMix implements Terrain.
func (t StaticTerrain) TextureMix(mgl64.Vec3) []float64 {
	return t.Mix
}

// LayerTexture implements Terrain.
func (t StaticTerrain) LayerTexture(layer int) string {
	if layer < 0 || layer >= len(t.Layers) {
		return ""
	}
	return t.Layers[layer]
}

// SubmeshRanges maps triangles to submeshes by contiguous index ranges: the
// submesh i owns triangles [Starts[i], Starts[i+1]).
type SubmeshRanges struct {
	Starts []int
}

// Submesh implements Mesh.
func (r SubmeshRanges) Submesh(triangle int) (int, bool) {
	if triangle < 0 || len(r.Starts) == 0 || triangle < r.Starts[0] {
		return -1, false
	}
	found := -1
	for i, start := range r.Starts {
		if triangle >= start {
			found = i
			continue
		}
		break
	}
	return found, found >= 0
}
