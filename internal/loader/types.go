// Package loader is a reference YAML front-end that produces the
// already-parsed model.Segment/model.Ride values the core consumes. The
// core treats script loading as an external collaborator (see the system
// overview); this package is one concrete implementation of that
// collaborator, generalizing orc's config.Load/Validate (yaml.v3 plus
// hand-rolled cross-reference checks) from a flat phase list to the
// richer segment/ride/flow shape, and adding JSON Schema validation via
// santhosh-tekuri/jsonschema for the structural checks YAML alone can't
// express.
package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// fileDoc is the on-disk shape of a single workflow definition file.
type fileDoc struct {
	Segments []segmentDoc `yaml:"segments"`
	Rides    []rideDoc    `yaml:"rides"`
}

// VarEntry is one declaration in a ride's vars block.
type VarEntry struct {
	Key   string
	Value string
}

// OrderedVars preserves YAML declaration order for a ride's vars block,
// generalizing orc's config.OrderedVars (which preserved order so
// ExpandVars reports could be deterministic about which declaration wins on
// a duplicate key).
type OrderedVars []VarEntry

// UnmarshalYAML reads a YAML mapping node and preserves key order.
func (ov *OrderedVars) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("loader: vars: must be a mapping")
	}
	for i := 0; i < len(value.Content)-1; i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("loader: vars: key at position %d is not a scalar", i/2+1)
		}
		if valNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("loader: vars: value for %q is not a scalar (nested maps/sequences are not supported)", keyNode.Value)
		}
		*ov = append(*ov, VarEntry{Key: keyNode.Value, Value: valNode.Value})
	}
	return nil
}

// AsMap flattens ov to a map, later duplicate keys winning.
func (ov OrderedVars) AsMap() map[string]string {
	m := make(map[string]string, len(ov))
	for _, e := range ov {
		m[e.Key] = e.Value
	}
	return m
}

type segmentDoc struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	DependsOn   []string          `yaml:"depends-on"`
	Condition   string            `yaml:"condition"` // shell command; exit 0 = true
	Timeout     string            `yaml:"timeout"`   // Go duration string, e.g. "30s"
	MaxRetries  int               `yaml:"max-retries"`
	RetryDelay  string            `yaml:"retry-delay"`
	RetryOn     []string          `yaml:"retry-on"`
	Inputs      []string          `yaml:"inputs"`
	Outputs     map[string]string `yaml:"outputs"`
	Run         string            `yaml:"run"` // shell command body
}

type rideDoc struct {
	Name           string            `yaml:"name"`
	MaxConcurrency int               `yaml:"max-concurrency"`
	Vars           OrderedVars       `yaml:"vars"`
	Environment    map[string]string `yaml:"environment"`
	Flow           flowDoc           `yaml:"flow"`
}

// flowDoc mirrors model.FlowNode's tagged shape, one of the three fields
// populated per node.
type flowDoc struct {
	Sequential []flowDoc     `yaml:"sequential"`
	Parallel   []flowDoc     `yaml:"parallel"`
	Ref        string        `yaml:"ref"`
	Overrides  *overridesDoc `yaml:"overrides"`
}

type overridesDoc struct {
	ExtraDependsOn []string `yaml:"depends-on"`
	Condition      string   `yaml:"condition"`
	Timeout        string   `yaml:"timeout"`
	Enabled        *bool    `yaml:"enabled"`
}

// parseFile unmarshals raw YAML bytes into a fileDoc.
func parseFile(data []byte) (fileDoc, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fileDoc{}, err
	}
	return doc, nil
}
