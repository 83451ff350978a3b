package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ResponseSchema is sent to providers that support structured output.
const ResponseSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["detected_product_name", "rating", "points", "analysis", "alternatives"],
  "properties": {
    "detected_product_name": {"type": "string"},
    "rating": {"type": "string", "enum": ["friendly", "moderate", "harmful", "hazardous"]},
    "points": {"type": "integer", "minimum": 0, "maximum": 100},
    "analysis": {"type": "string"},
    "alternatives": {"type": "string"}
  }
}`

// acceptanceSchema is what a reply must satisfy before normalization. Value
// types stay loose; coercion happens in the normalizer.
const acceptanceSchema = `{
  "type": "object",
  "required": ["detected_product_name", "rating", "points", "analysis", "alternatives"],
  "properties": {
    "detected_product_name": {"type": ["string", "null"]},
    "rating": {"type": ["string", "null"]},
    "points": {"type": ["number", "string", "null"]},
    "analysis": {"type": ["string", "object", "array", "number", "boolean"]},
    "alternatives": {"type": ["string", "object", "array", "number", "boolean"]}
  }
}`

var compiledAcceptance = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(acceptanceSchema))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("score.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("score.json")
})

// ParseScore decodes content and validates it against the acceptance schema.
// Numbers are returned as json.Number.
func ParseScore(content string) (map[string]any, error) {
	sch, err := compiledAcceptance()
	if err != nil {
		return nil, fmt.Errorf("compile score schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("decode score: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("score schema: %w", err)
	}
	obj, ok := inst.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("score is not an object")
	}
	return obj, nil
}

// ResponseSchemaJSON exposes ResponseSchema as a json.Marshaler.
func ResponseSchemaJSON() json.RawMessage { return json.RawMessage(ResponseSchema) }
