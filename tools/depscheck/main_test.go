package main

import (
	"strings"
	"testing"
)

func TestCheckReportsForbiddenImports(t *testing.T) {
	pkgs := []packageInfo{
		{ImportPath: "surfacefx/surface", Imports: []string{"sort", "surfacefx/effects"}},
		{ImportPath: "surfacefx/surface/catalog", Imports: []string{"surfacefx/surface", "surfacefx/internal/resolve"}},
		{ImportPath: "surfacefx/effects", Imports: []string{"surfacefx/internal/resolve", "surfacefx/logging"}},
		{ImportPath: "surfacefx/surfaces", Imports: []string{"surfacefx/effects"}},
	}

	got := check(pkgs, rules)
	want := []string{
		"surfacefx/surface -> surfacefx/effects",
		"surfacefx/surface/catalog -> surfacefx/internal/resolve",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected violations:\n%s", strings.Join(got, "\n"))
	}
}

func TestDecodePackagesReadsStream(t *testing.T) {
	stream := `{"ImportPath":"surfacefx/contact","Imports":["surfacefx/surface"]}
{"ImportPath":"surfacefx/surface"}`
	pkgs, err := decodePackages(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pkgs) != 2 || pkgs[0].Imports[0] != "surfacefx/surface" {
		t.Fatalf("unexpected packages: %+v", pkgs)
	}

	if _, err := decodePackages(strings.NewReader("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}
