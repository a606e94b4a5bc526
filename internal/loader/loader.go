package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/kite/internal/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Result is what Discover returns: already-parsed model values plus any
// per-file errors encountered (a bad file does not abort discovery of the
// rest).
type Result struct {
	Segments map[string]model.Segment
	Rides    map[string]model.Ride
	Errors   []error
}

// Discover walks workspaceRoot for *.kite.yaml files, parses and schema-
// validates each, and converts them into model values. Per the core's
// external-interface contract this is one concrete script loader
// implementation, not something the scheduler or graph packages import.
func Discover(workspaceRoot string) Result {
	res := Result{
		Segments: make(map[string]model.Segment),
		Rides:    make(map[string]model.Ride),
	}

	schema, err := compileSchema()
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("loader: compiling schema: %w", err))
		return res
	}

	var files []string
	err = filepath.Walk(workspaceRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && hasKiteSuffix(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("loader: walking %q: %w", workspaceRoot, err))
		return res
	}

	for _, path := range files {
		if err := res.loadFile(schema, path); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("loader: %s: %w", path, err))
		}
	}
	return res
}

func hasKiteSuffix(path string) bool {
	const suffix = ".kite.yaml"
	if len(path) < len(suffix) {
		return false
	}
	return path[len(path)-len(suffix):] == suffix
}

func (r *Result) loadFile(schema *jsonschema.Schema, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if verr := validateAgainstSchema(schema, data); verr != nil {
		return fmt.Errorf("schema validation: %w", verr)
	}

	doc, err := parseFile(data)
	if err != nil {
		return err
	}

	for _, sd := range doc.Segments {
		seg, err := toSegment(sd)
		if err != nil {
			return err
		}
		r.Segments[seg.Name] = seg
	}
	for _, rd := range doc.Rides {
		ride, err := toRide(rd)
		if err != nil {
			return err
		}
		r.Rides[ride.Name] = ride
	}
	return nil
}
