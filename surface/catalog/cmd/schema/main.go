// Command schema writes the JSON schema of surface catalog documents and
// checks catalog files against the loader.
//
//	schema -kind particles -out schema/particles.json
//	schema -check config/surfaces/types.yaml,config/surfaces/types.local.yaml
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"

	"surfacefx/surface/catalog"
)

type kind struct {
	title       string
	description string
}

// Sound and particle catalogs share a document layout but resolve
// independently, so each gets its own titled root.
var kinds = map[string]kind{
	"surfaces": {
		title:       "Surface Catalog",
		description: "Sound surface types and material blends in config/surfaces/types.yaml",
	},
	"particles": {
		title:       "Particle Surface Catalog",
		description: "Particle surface types in config/surfaces/particles.yaml",
	},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	kindName := fs.String("kind", "surfaces", "document kind: surfaces or particles")
	outPath := fs.String("out", "", "path to write the JSON schema")
	check := fs.String("check", "", "comma-separated catalog files to load instead of writing a schema")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *check != "" {
		if err := checkCatalog(stdout, strings.Split(*check, ",")); err != nil {
			fmt.Fprintf(stderr, "check failed: %v\n", err)
			return 1
		}
		return 0
	}

	if *outPath == "" {
		fmt.Fprintln(stderr, "--out or --check is required")
		return 2
	}
	schema, err := buildSchema(*kindName)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if err := writeSchema(*outPath, schema); err != nil {
		fmt.Fprintf(stderr, "failed to write schema: %v\n", err)
		return 1
	}
	return 0
}

// buildSchema accepts both on-disk forms: the wrapper document and a bare
// list of types.
func buildSchema(name string) (*jsonschema.Schema, error) {
	k, ok := kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", name)
	}
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	document := reflector.ReflectFromType(reflect.TypeOf(catalog.Document{}))
	if document == nil {
		return nil, errors.New("failed to reflect catalog document")
	}
	document.Version = ""
	document.Title = "Catalog Document"

	entry := reflector.ReflectFromType(reflect.TypeOf(catalog.TypeDocument{}))
	if entry == nil {
		return nil, errors.New("failed to reflect surface type")
	}
	entry.Version = ""

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       k.title,
		Description: k.description,
		OneOf: []*jsonschema.Schema{
			document,
			{
				Type:        "array",
				Title:       "Type List",
				Description: "Surface types without a default type or material blends.",
				Items:       entry,
			},
		},
	}, nil
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	return os.Rename(tmpPath, outPath)
}

// checkCatalog loads paths as one overlaid catalog. Unlike catalog.Load, a
// missing file is an error here.
func checkCatalog(stdout io.Writer, paths []string) error {
	var files []string
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return err
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return errors.New("no catalog files given")
	}

	cat, err := catalog.Load(files...)
	if err != nil {
		return err
	}
	snap := cat.Snapshot()
	ids := make([]string, 0, snap.Len())
	for _, t := range snap.Types() {
		ids = append(ids, t.ID)
	}
	fmt.Fprintf(stdout, "%d surface types: %s\n", snap.Len(), strings.Join(ids, ", "))
	return nil
}
