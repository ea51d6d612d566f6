package contact

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"surfacefx/surface"
)

func TestSubmeshRanges(t *testing.T) {
	mesh := SubmeshRanges{Starts: []int{0, 4, 10}}
	cases := []struct {
		triangle int
		submesh  int
		ok       bool
	}{
		{triangle: -1, submesh: -1},
		{triangle: 0, submesh: 0, ok: true},
		{triangle: 3, submesh: 0, ok: true},
		{triangle: 4, submesh: 1, ok: true},
		{triangle: 9, submesh: 1, ok: true},
		{triangle: 250, submesh: 2, ok: true},
	}
	for _, tc := range cases {
		submesh, ok := mesh.Submesh(tc.triangle)
		assert.Equal(t, tc.ok, ok, "triangle %d", tc.triangle)
		assert.Equal(t, tc.submesh, submesh, "triangle %d", tc.triangle)
	}

	_, ok := SubmeshRanges{}.Submesh(0)
	assert.False(t, ok)
	_, ok = SubmeshRanges{Starts: []int{5}}.Submesh(2)
	assert.False(t, ok)
}

func TestManifoldPointsFallsBackToPrimary(t *testing.T) {
	d := Descriptor{
		Point:            mgl64.Vec3{1, 2, 3},
		Normal:           mgl64.Vec3{0, 1, 0},
		RelativeVelocity: mgl64.Vec3{4, 0, 0},
		Impulse:          mgl64.Vec3{0, 3, 4},
	}
	points := d.ManifoldPoints()
	assert.Len(t, points, 1)
	assert.Equal(t, d.Point, points[0].Position)
	assert.Equal(t, d.RelativeVelocity, points[0].RelativeVelocity)
	assert.InDelta(t, 5, d.ImpulseMagnitude(), 1e-12)
	assert.False(t, d.HasTriangle())

	d.Points = []Point{{Normal: mgl64.Vec3{1, 0, 0}}, {Normal: mgl64.Vec3{0, 0, 1}}}
	d.Triangle = TriangleAt(0)
	assert.Len(t, d.ManifoldPoints(), 2)
	assert.True(t, d.HasTriangle())
}

func TestZeroDescriptorHasNoTriangle(t *testing.T) {
	assert.False(t, Descriptor{}.HasTriangle())
	assert.Equal(t, Triangle{}, TriangleAt(-3))
	assert.False(t, Descriptor{Triangle: TriangleAt(-1)}.HasTriangle())
	assert.False(t, Descriptor{Triangle: Triangle{Index: -2, Valid: true}}.HasTriangle())

	d := Descriptor{Triangle: TriangleAt(0)}
	assert.True(t, d.HasTriangle())
	assert.Equal(t, 0, d.Triangle.Index)
}

func TestMarkers(t *testing.T) {
	typed := TypeOverride("metal")
	assert.Equal(t, MarkerType, typed.Kind)
	assert.Equal(t, "type", typed.Kind.String())

	blend := BlendOverride(
		[]surface.Blend{{Reference: "wood", Weight: 1}},
		SubmeshBlends{Submesh: 2, Blends: []surface.Blend{{Reference: "metal", Weight: 1}}},
	)
	assert.Equal(t, "blend", blend.Kind.String())
	table, ok := blend.SubmeshTable(2)
	assert.True(t, ok)
	assert.Equal(t, "metal", table[0].Reference)
	_, ok = blend.SubmeshTable(0)
	assert.False(t, ok)

	assert.Equal(t, "none", Marker{}.Kind.String())
	assert.Equal(t, "unknown", MarkerKind(9).String())
}

func TestSurfaceMaterials(t *testing.T) {
	s := Surface{Materials: []string{"Planks", "Plate"}}
	assert.Equal(t, "Planks", s.PrimaryMaterial())
	name, ok := s.Material(1)
	assert.True(t, ok)
	assert.Equal(t, "Plate", name)
	_, ok = s.Material(2)
	assert.False(t, ok)
	assert.Equal(t, "", Surface{}.PrimaryMaterial())
}

func TestStaticTerrain(t *testing.T) {
	terrain := StaticTerrain{Mix: []float64{0.25, 0.75}, Layers: []string{"grass", "mud"}}
	assert.Equal(t, []float64{0.25, 0.75}, terrain.TextureMix(mgl64.Vec3{}))
	assert.Equal(t, "mud", terrain.LayerTexture(1))
	assert.Equal(t, "", terrain.LayerTexture(5))
}
