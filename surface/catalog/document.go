package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"surfacefx/surface"
)

// TypeDocument is a surface type as authored on disk. Order matters: keyword
// and texture lookups walk types in document order and the first match wins.
type TypeDocument struct {
	ID              string   `json:"id" yaml:"id" jsonschema:"title=Surface type ID,description=Stable identifier referenced by blend tables and the default type,pattern=^[a-z0-9_-]+$,minLength=1,required"`
	Name            string   `json:"name,omitempty" yaml:"name,omitempty" jsonschema:"title=Display name"`
	Keywords        []string `json:"keywords,omitempty" yaml:"keywords,omitempty" jsonschema:"description=Case-insensitive substrings matched against material names"`
	TerrainTextures []string `json:"terrainTextures,omitempty" yaml:"terrainTextures,omitempty" jsonschema:"description=Terrain layer texture names that map to this type"`
	Hardness        float64  `json:"hardness,omitempty" yaml:"hardness,omitempty" jsonschema:"description=Relative hardness used to estimate impact duration (defaults to 1),minimum=0"`
}

// MaterialBlendDocument overrides keyword resolution for one material name.
type MaterialBlendDocument struct {
	Material string          `json:"material" yaml:"material" jsonschema:"title=Material name,minLength=1,required"`
	Blends   []surface.Blend `json:"blends" yaml:"blends" jsonschema:"description=Blend table emitted instead of a keyword match,required"`
}

// Document is the on-disk representation of a surface catalog. Sources that
// only contain a list of types may omit the wrapper object.
type Document struct {
	DefaultType    string                  `json:"defaultType,omitempty" yaml:"defaultType,omitempty" jsonschema:"title=Default surface type,description=Type substituted when resolution yields nothing (defaults to the first type)"`
	Types          []TypeDocument          `json:"types" yaml:"types" jsonschema:"title=Surface types,required"`
	MaterialBlends []MaterialBlendDocument `json:"materialBlends,omitempty" yaml:"materialBlends,omitempty" jsonschema:"title=Per-material blend tables"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeDocument(path string, data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, nil
	}
	if isYAML(path) {
		var doc Document
		if err := yaml.Unmarshal(trimmed, &doc); err != nil {
			return Document{}, err
		}
		return doc, nil
	}
	switch trimmed[0] {
	case '[':
		var types []TypeDocument
		if err := json.Unmarshal(trimmed, &types); err != nil {
			return Document{}, err
		}
		return Document{Types: types}, nil
	case '{':
		var doc Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return Document{}, err
		}
		return doc, nil
	default:
		return Document{}, fmt.Errorf("unexpected json token %q", string(trimmed[:1]))
	}
}
