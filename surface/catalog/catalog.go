package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"surfacefx/surface"
)

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

// Catalog merges one or more surface configuration sources into an ordered
// table of surface types. Call Reload to pick up on-disk changes.
type Catalog struct {
	mu      sync.RWMutex
	sources []source
	current *Snapshot
}

// DefaultPaths returns the canonical catalog locations relative to the module
// root. Callers may pass these to Load.
func DefaultPaths() []string {
	return []string{
		filepath.Join("config", "surfaces", "types.yaml"),
		filepath.Join("config", "surfaces", "types.local.yaml"),
	}
}

// Load constructs a Catalog backed by the provided file paths. Missing files
// are skipped; YAML is used for .yaml/.yml files and JSON otherwise.
func Load(paths ...string) (*Catalog, error) {
	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		sources = append(sources, fileSource{path: trimmed})
	}
	return New(sources...)
}

// New constructs a Catalog from arbitrary sources.
func New(sources ...source) (*Catalog, error) {
	c := &Catalog{sources: append([]source(nil), sources...)}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromDocument builds a Catalog from an in-memory document. Reload on the
// result is a no-op.
func FromDocument(doc Document) (*Catalog, error) {
	snap, err := build([]namedDocument{{path: "inline", doc: doc}})
	if err != nil {
		return nil, err
	}
	return &Catalog{current: snap}, nil
}

// Snapshot returns the current immutable view.
func (c *Catalog) Snapshot() *Snapshot {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Reload re-parses all sources. Later sources override types with the same ID
// in place and append new ones so local overlays keep the base ordering.
func (c *Catalog) Reload() error {
	if c == nil || len(c.sources) == 0 {
		return nil
	}
	docs := make([]namedDocument, 0, len(c.sources))
	for _, src := range c.sources {
		data, err := src.Load()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("catalog: failed loading %s: %w", src.Path(), err)
		}
		doc, err := decodeDocument(src.Path(), data)
		if err != nil {
			return fmt.Errorf("catalog: failed parsing %s: %w", src.Path(), err)
		}
		docs = append(docs, namedDocument{path: src.Path(), doc: doc})
	}
	snap, err := build(docs)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.current = snap
	c.mu.Unlock()
	return nil
}

type namedDocument struct {
	path string
	doc  Document
}

func build(docs []namedDocument) (*Snapshot, error) {
	var types []Type
	var defaultType string
	byID := make(map[string]int)
	blends := make(map[string][]surface.Blend)
	for _, nd := range docs {
		seen := make(map[string]struct{}, len(nd.doc.Types))
		for _, td := range nd.doc.Types {
			id := strings.TrimSpace(td.ID)
			if id == "" {
				return nil, fmt.Errorf("catalog: surface type missing id in %s", nd.path)
			}
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("catalog: duplicate surface type %q in %s", id, nd.path)
			}
			seen[id] = struct{}{}

			t := resolveType(td)
			if index, exists := byID[id]; exists {
				t.Index = index
				types[index] = t
				continue
			}
			t.Index = len(types)
			byID[id] = t.Index
			types = append(types, t)
		}
		for _, mb := range nd.doc.MaterialBlends {
			material := Normalize(mb.Material)
			if material == "" {
				return nil, fmt.Errorf("catalog: material blend missing material in %s", nd.path)
			}
			blends[material] = append([]surface.Blend(nil), mb.Blends...)
		}
		if trimmed := strings.TrimSpace(nd.doc.DefaultType); trimmed != "" {
			defaultType = trimmed
		}
	}

	if len(types) == 0 {
		return nil, errors.New("catalog: no surface types loaded")
	}

	snap := &Snapshot{
		types:          types,
		byID:           byID,
		textures:       make(map[string]int),
		materialBlends: blends,
	}
	if defaultType != "" {
		index, ok := byID[defaultType]
		if !ok {
			return nil, fmt.Errorf("catalog: default surface type %q is not defined", defaultType)
		}
		snap.defaultType = index
	}
	for _, t := range types {
		for _, texture := range t.TerrainTextures {
			if _, taken := snap.textures[texture]; !taken {
				snap.textures[texture] = t.Index
			}
		}
	}
	return snap, nil
}

func resolveType(td TypeDocument) Type {
	t := Type{
		ID:       strings.TrimSpace(td.ID),
		Name:     strings.TrimSpace(td.Name),
		Hardness: td.Hardness,
	}
	if t.Name == "" {
		t.Name = t.ID
	}
	if t.Hardness <= 0 {
		t.Hardness = 1
	}
	for _, keyword := range td.Keywords {
		if folded := Normalize(keyword); folded != "" {
			t.Keywords = append(t.Keywords, folded)
		}
	}
	for _, texture := range td.TerrainTextures {
		if folded := Normalize(texture); folded != "" {
			t.TerrainTextures = append(t.TerrainTextures, folded)
		}
	}
	return t
}
