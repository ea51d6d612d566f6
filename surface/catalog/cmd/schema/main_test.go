package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readSchema(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("schema is not valid json: %v", err)
	}
	return decoded
}

func TestWriteSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schema", "surfaces.json")
	schema, err := buildSchema("surfaces")
	if err != nil {
		t.Fatalf("buildSchema: %v", err)
	}
	if err := writeSchema(out, schema); err != nil {
		t.Fatalf("writeSchema failed: %v", err)
	}

	decoded := readSchema(t, out)
	if decoded["title"] != "Surface Catalog" {
		t.Fatalf("unexpected title %v", decoded["title"])
	}
	forms, ok := decoded["oneOf"].([]any)
	if !ok || len(forms) != 2 {
		t.Fatalf("expected document and list forms, got %v", decoded["oneOf"])
	}
	if list := forms[1].(map[string]any); list["type"] != "array" {
		t.Fatalf("expected the second form to be a type list, got %v", list)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed, stat err=%v", err)
	}
}

func TestRunWritesParticleSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "particles.json")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-kind", "particles", "-out", out}, &stdout, &stderr); code != 0 {
		t.Fatalf("run exited %d: %s", code, stderr.String())
	}
	if got := readSchema(t, out)["title"]; got != "Particle Surface Catalog" {
		t.Fatalf("unexpected title %v", got)
	}
}

func TestRunRejectsBadArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("expected usage error without --out, got %d", code)
	}
	out := filepath.Join(t.TempDir(), "x.json")
	if code := run([]string{"-kind", "sprites", "-out", out}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected unknown kind to fail, got %d", code)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no schema for an unknown kind, stat err=%v", err)
	}
}

func TestRunChecksCatalogFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "types.yaml")
	doc := "defaultType: dust\ntypes:\n  - id: dust\n    keywords: [stone]\n  - id: sparks\n    keywords: [metal]\n"
	if err := os.WriteFile(good, []byte(doc), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-check", good}, &stdout, &stderr); code != 0 {
		t.Fatalf("check exited %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "2 surface types: dust, sparks") {
		t.Fatalf("unexpected summary %q", stdout.String())
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("defaultType: ghost\ntypes:\n  - id: dust\n"), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	stderr.Reset()
	if code := run([]string{"-check", bad}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected undefined default type to fail, got %d", code)
	}
	if code := run([]string{"-check", filepath.Join(dir, "missing.yaml")}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected a missing file to fail, got %d", code)
	}
}
