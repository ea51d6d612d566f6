package catalog

import (
	"strings"

	"surfacefx/surface"
)

// Type is a resolved surface type. Index is the integer surface-type ID used
// by outputs and channels.
type Type struct {
	Index           int
	ID              string
	Name            string
	Keywords        []string
	TerrainTextures []string
	Hardness        float64
}

// Snapshot is an immutable view of the catalog. Lookups on a Snapshot never
// block and stay consistent even while the Catalog reloads.
type Snapshot struct {
	types          []Type
	byID           map[string]int
	textures       map[string]int
	materialBlends map[string][]surface.Blend
	defaultType    int
}

// Len reports the number of surface types.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.types)
}

// Types returns a copy of the ordered surface types.
func (s *Snapshot) Types() []Type {
	if s == nil {
		return nil
	}
	return append([]Type(nil), s.types...)
}

// Type returns the surface type with the given index.
func (s *Snapshot) Type(index int) (Type, bool) {
	if s == nil || index < 0 || index >= len(s.types) {
		return Type{}, false
	}
	return s.types[index], true
}

// IndexOf maps a surface type ID to its index.
func (s *Snapshot) IndexOf(id string) (int, bool) {
	if s == nil {
		return -1, false
	}
	index, ok := s.byID[strings.TrimSpace(id)]
	return index, ok
}

// Default returns the index substituted when resolution yields nothing.
func (s *Snapshot) Default() int {
	if s == nil {
		return -1
	}
	return s.defaultType
}

// Hardness returns the configured hardness of a type, 1 when unknown.
func (s *Snapshot) Hardness(index int) float64 {
	if t, ok := s.Type(index); ok {
		return t.Hardness
	}
	return 1
}

// MatchKeyword tests name against every type's keywords in catalog order and
// returns the first type whose keyword is contained in the name. Matching is
// case-insensitive.
func (s *Snapshot) MatchKeyword(name string) (int, bool) {
	if s == nil {
		return -1, false
	}
	folded := Normalize(name)
	if folded == "" {
		return -1, false
	}
	for _, t := range s.types {
		for _, keyword := range t.Keywords {
			if strings.Contains(folded, keyword) {
				return t.Index, true
			}
		}
	}
	return -1, false
}

// MatchTexture maps a terrain layer texture name to the first type listing it.
func (s *Snapshot) MatchTexture(texture string) (int, bool) {
	if s == nil {
		return -1, false
	}
	index, ok := s.textures[Normalize(texture)]
	return index, ok
}

// MaterialBlends returns the blend table configured for a material name.
func (s *Snapshot) MaterialBlends(material string) ([]surface.Blend, bool) {
	if s == nil || len(s.materialBlends) == 0 {
		return nil, false
	}
	blends, ok := s.materialBlends[Normalize(material)]
	return blends, ok
}
