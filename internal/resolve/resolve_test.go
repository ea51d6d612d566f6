package resolve

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surfacefx/contact"
	"surfacefx/surface"
	"surfacefx/surface/catalog"
)

const (
	gravel = iota
	wet
	concrete
	metal
	sand
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.FromDocument(catalog.Document{
		DefaultType: "concrete",
		Types: []catalog.TypeDocument{
			{ID: "gravel", Keywords: []string{"gravel"}, TerrainTextures: []string{"gravel_a", "gravel_b"}, Hardness: 2},
			{ID: "wet", Keywords: []string{"wet"}, TerrainTextures: []string{"mud"}},
			{ID: "concrete", Keywords: []string{"concrete"}, Hardness: 4},
			{ID: "metal", Keywords: []string{"metal", "steel"}, TerrainTextures: []string{"rail"}},
			{ID: "sand", Keywords: []string{"sand"}, TerrainTextures: []string{"dune"}},
		},
		MaterialBlends: []catalog.MaterialBlendDocument{
			{Material: "Rusty_Deck", Blends: []surface.Blend{{Reference: "steel", Weight: 0.6}, {Reference: "gravel", Weight: 0.4}}},
		},
	})
	require.NoError(t, err)
	return cat
}

func ids(s *surface.Set) []int {
	out := make([]int, 0, s.Len())
	for _, o := range s.Items {
		out = append(out, o.SurfaceTypeID)
	}
	return out
}

func TestResolveTypeOverride(t *testing.T) {
	r := New(testCatalog(t))
	var dst surface.Set

	outcome := r.Resolve(contact.Descriptor{
		Surface: contact.Surface{Marker: contact.TypeOverride("metal"), Materials: []string{"sand"}},
	}, 3, &dst)

	assert.Equal(t, StrategyTypeOverride, outcome.Strategy)
	assert.False(t, outcome.Defaulted)
	require.Equal(t, 1, dst.Len())
	assert.Equal(t, metal, dst.Items[0].SurfaceTypeID)
	assert.Equal(t, 1.0, dst.Items[0].Weight)
}

func TestResolveUnresolvedTypeOverrideFallsBackToDefault(t *testing.T) {
	r := New(testCatalog(t))
	var dst surface.Set

	outcome := r.Resolve(contact.Descriptor{
		Surface: contact.Surface{Marker: contact.TypeOverride("lava"), Materials: []string{"sand"}},
	}, 3, &dst)

	assert.Equal(t, StrategyTypeOverride, outcome.Strategy)
	assert.True(t, outcome.Defaulted)
	assert.Equal(t, []int{concrete}, ids(&dst))
}

func TestResolveBlendOverrideIsBounded(t *testing.T) {
	r := New(testCatalog(t))
	var dst surface.Set
	blends := []surface.Blend{
		{Reference: "Sand", Weight: 0.5, Volume: 2},
		{Reference: "unknown", Weight: 0.3},
		{Reference: "metal", Weight: 0.2},
	}

	outcome := r.Resolve(contact.Descriptor{
		Surface: contact.Surface{Marker: contact.BlendOverride(blends)},
	}, 1, &dst)

	assert.Equal(t, StrategyBlendOverride, outcome.Strategy)
	assert.Equal(t, []int{sand, concrete}, ids(&dst))
	assert.Equal(t, 2.0, dst.Items[0].VolumeMultiplier)
	assert.Equal(t, 0.3, dst.Items[1].Weight)
}

func TestResolveSubmeshBlendOverride(t *testing.T) {
	r := New(testCatalog(t))
	var dst surface.Set
	marker := contact.BlendOverride(
		[]surface.Blend{{Reference: "sand", Weight: 1}},
		contact.SubmeshBlends{Submesh: 1, Blends: []surface.Blend{{Reference: "wet", Weight: 0.9, ParticleOverride: "splash"}}},
	)
	d := contact.Descriptor{
		Triangle: contact.TriangleAt(12),
		Surface: contact.Surface{
			Marker:    marker,
			Mesh:      contact.SubmeshRanges{Starts: []int{0, 10}},
			Materials: []string{"a", "b"},
		},
	}

	r.Resolve(d, 2, &dst)
	require.Equal(t, 1, dst.Len())
	assert.Equal(t, surface.Key{SurfaceTypeID: wet, OverrideID: "splash"}, dst.Items[0].Key())

	d.Triangle = contact.TriangleAt(3)
	r.Resolve(d, 2, &dst)
	assert.Equal(t, []int{sand}, ids(&dst))

	d.Triangle = contact.Triangle{}
	r.Resolve(d, 2, &dst)
	assert.Equal(t, []int{sand}, ids(&dst))
}

func TestZeroTriangleDoesNotPickFirstSubmesh(t *testing.T) {
	r := New(testCatalog(t))
	var dst surface.Set
	marker := contact.BlendOverride(
		[]surface.Blend{{Reference: "sand", Weight: 1}},
		contact.SubmeshBlends{Submesh: 0, Blends: []surface.Blend{{Reference: "wet", Weight: 1}}},
	)
	d := contact.Descriptor{Surface: contact.Surface{
		Marker: marker,
		Mesh:   contact.SubmeshRanges{Starts: []int{0, 10}},
	}}

	r.Resolve(d, 2, &dst)
	assert.Equal(t, []int{sand}, ids(&dst))

	d.Triangle = contact.TriangleAt(0)
	r.Resolve(d, 2, &dst)
	assert.Equal(t, []int{wet}, ids(&dst))
}

func TestResolveTerrainDecomposition(t *testing.T) {
	r := New(testCatalog(t))
	var dst surface.Set
	d := contact.Descriptor{Surface: contact.Surface{Terrain: contact.StaticTerrain{
		Mix:    []float64{0.2, 0.5, 0.3},
		Layers: []string{"dune", "mud", "rail"},
	}}}

	outcome := r.Resolve(d, 1, &dst)

	assert.Equal(t, StrategyTerrain, outcome.Strategy)
	assert.Equal(t, []int{wet, metal}, ids(&dst))
	assert.Equal(t, 0.5, dst.Items[0].Weight)
	assert.Equal(t, 0.3, dst.Items[1].Weight)
}

func TestResolveTerrainMergesSameTypeAndTies(t *testing.T) {
	r := New(testCatalog(t))
	var dst surface.Set
	d := contact.Descriptor{Surface: contact.Surface{Terrain: contact.StaticTerrain{
		Mix:    []float64{0.3, 0.3, 0.25, 0.15, 0},
		Layers: []string{"gravel_a", "gravel_b", "unmapped", "dune", "mud"},
	}}}

	r.Resolve(d, 4, &dst)

	require.Equal(t, []int{gravel, sand}, ids(&dst))
	assert.InDelta(t, 0.6, dst.Items[0].Weight, 1e-12)
	assert.InDelta(t, 0.15, dst.Items[1].Weight, 1e-12)
}

func TestNextLayerOrder(t *testing.T) {
	mix := []float64{0.25, 0.25, 0.5, 0}
	var order []int
	ceiling, last := 1e9, -1
	for {
		layer, value := nextLayer(mix, ceiling, last)
		if layer < 0 {
			break
		}
		order = append(order, layer)
		ceiling, last = value, layer
	}
	assert.Equal(t, []int{2, 0, 1}, order)
}

func TestResolveKeywordFallback(t *testing.T) {
	r := New(testCatalog(t))
	var dst surface.Set

	outcome := r.Resolve(contact.Descriptor{
		Normal:  mgl64.Vec3{0, 1, 0},
		Surface: contact.Surface{Materials: []string{"Wet_Gravel_01"}},
	}, 2, &dst)

	assert.Equal(t, StrategyKeyword, outcome.Strategy)
	assert.Equal(t, []int{gravel}, ids(&dst))
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, dst.HitNormal)
	assert.Equal(t, 2.0, dst.Hardness)
}

func TestResolveMaterialBlendFromStruckSubmesh(t *testing.T) {
	r := New(testCatalog(t))
	var dst surface.Set

	outcome := r.Resolve(contact.Descriptor{
		Triangle: contact.TriangleAt(7),
		Surface: contact.Surface{
			Mesh:      contact.SubmeshRanges{Starts: []int{0, 5}},
			Materials: []string{"Sand_Floor", "Rusty_Deck"},
		},
	}, 2, &dst)

	assert.Equal(t, StrategyMaterialBlend, outcome.Strategy)
	assert.Equal(t, []int{metal, gravel}, ids(&dst))
	assert.InDelta(t, (0.6*1+0.4*2)/1.0, dst.Hardness, 1e-12)
}

func TestResolveEmptyYieldsDefault(t *testing.T) {
	r := New(testCatalog(t))
	dst := surface.NewSet(4)
	dst.Add(surface.NewOutput(sand, 0.1))

	outcome := r.Resolve(contact.Descriptor{Surface: contact.Surface{Materials: []string{"grass"}}}, 2, dst)

	assert.True(t, outcome.Defaulted)
	require.Equal(t, 1, dst.Len())
	assert.Equal(t, concrete, dst.Items[0].SurfaceTypeID)
	assert.Equal(t, 1.0, dst.Items[0].Weight)
}

func TestCandidatesMayBeEmpty(t *testing.T) {
	cat := testCatalog(t)
	var dst surface.Set
	strategy := Candidates(cat.Snapshot(), contact.Descriptor{}, 2, &dst)
	assert.Equal(t, StrategyKeyword, strategy)
	assert.Equal(t, 0, dst.Len())
}

func TestResolveWithoutCatalog(t *testing.T) {
	var dst surface.Set
	outcome := New(nil).Resolve(contact.Descriptor{Surface: contact.Surface{Materials: []string{"metal"}}}, 1, &dst)
	assert.False(t, outcome.Defaulted)
	assert.Equal(t, 0, dst.Len())
	assert.Equal(t, 1.0, dst.Hardness)
}
