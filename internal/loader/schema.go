package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// schemaSource is the JSON Schema for a workflow definition file. It
// catches structural mistakes (wrong types, missing names) before
// conversion even attempts to build closures; cross-reference checks
// (unknown segment, cycles) remain graph.Validate's job since JSON Schema
// can't express them.
const schemaSource = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "segments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "depends-on": {"type": "array", "items": {"type": "string"}},
          "condition": {"type": "string"},
          "timeout": {"type": "string"},
          "max-retries": {"type": "integer", "minimum": 0},
          "retry-delay": {"type": "string"},
          "retry-on": {"type": "array", "items": {"type": "string"}},
          "inputs": {"type": "array", "items": {"type": "string"}},
          "outputs": {"type": "object", "additionalProperties": {"type": "string"}},
          "run": {"type": "string"}
        }
      }
    },
    "rides": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "flow"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "max-concurrency": {"type": "integer", "minimum": 0},
          "vars": {"type": "object", "additionalProperties": {"type": "string"}},
          "environment": {"type": "object", "additionalProperties": {"type": "string"}},
          "flow": {"type": "object"}
        }
      }
    }
  }
}`

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("kite-workflow.json", bytes.NewReader([]byte(schemaSource))); err != nil {
		return nil, fmt.Errorf("loader: adding schema resource: %w", err)
	}
	return compiler.Compile("kite-workflow.json")
}

// validateAgainstSchema converts YAML bytes to a generic JSON-compatible
// value (yaml.v3 already decodes into map[string]interface{}-friendly
// structures) and runs it through the compiled schema.
func validateAgainstSchema(schema *jsonschema.Schema, data []byte) error {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return err
	}
	normalized, err := toJSONCompatible(generic)
	if err != nil {
		return err
	}
	return schema.Validate(normalized)
}

// toJSONCompatible round-trips through encoding/json so yaml.v3's decoded
// values become the map[string]interface{}/[]interface{} shapes jsonschema
// expects. A document with non-string mapping keys fails to marshal and is
// returned as an error.
func toJSONCompatible(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("loader: normalizing document for schema validation: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}
