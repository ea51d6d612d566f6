// Command depscheck fails when a package imports across the engine layers:
// the data packages and the numeric engine never reach up into the effects
// orchestration, logging or the demo runner.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type packageInfo struct {
	ImportPath string
	Imports    []string
}

type rule struct {
	// from matches importing packages by prefix.
	from      string
	forbidden []string
}

var rules = []rule{
	{from: "surfacefx/surface", forbidden: []string{"surfacefx/effects", "surfacefx/internal", "surfacefx/logging"}},
	{from: "surfacefx/contact", forbidden: []string{"surfacefx/effects", "surfacefx/internal", "surfacefx/logging"}},
	{from: "surfacefx/internal/resolve", forbidden: []string{"surfacefx/effects", "surfacefx/logging"}},
	{from: "surfacefx/internal/aggregate", forbidden: []string{"surfacefx/effects", "surfacefx/logging"}},
	{from: "surfacefx/internal/channels", forbidden: []string{"surfacefx/effects", "surfacefx/logging"}},
	{from: "surfacefx/internal/envelope", forbidden: []string{"surfacefx/effects", "surfacefx/logging"}},
	{from: "surfacefx/effects", forbidden: []string{"surfacefx/internal/app", "surfacefx/internal/net"}},
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	pkgs, err := decodePackages(bytes.NewReader(output))
	if err != nil {
		fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
		os.Exit(1)
	}

	if violations := check(pkgs, rules); len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func decodePackages(r io.Reader) ([]packageInfo, error) {
	decoder := json.NewDecoder(r)
	var pkgs []packageInfo
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				return pkgs, nil
			}
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
}

func check(pkgs []packageInfo, rules []rule) []string {
	var violations []string
	for _, pkg := range pkgs {
		for _, r := range rules {
			if !within(pkg.ImportPath, r.from) {
				continue
			}
			for _, imp := range pkg.Imports {
				for _, forbidden := range r.forbidden {
					if within(imp, forbidden) {
						violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
					}
				}
			}
		}
	}
	sort.Strings(violations)
	return violations
}

// within reports whether path is prefix or one of its subpackages.
func within(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
