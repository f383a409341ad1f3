package web

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// batchRequestSchema guards the wire shape of apply/validate bodies before
// they reach the JSON decoder, so a malformed agent payload produces a
// precise schema error instead of a decoding surprise.
const batchRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "ops"],
  "properties": {
    "version": {"type": "string"},
    "estimated_cost": {"type": "number"},
    "caller_id": {"type": "string"},
    "ops": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["op"],
        "properties": {
          "op": {
            "type": "string",
            "enum": ["add_node", "set_params", "connect", "disconnect", "delete", "annotate", "clear_annotation"]
          },
          "node": {
            "type": "object",
            "required": ["id", "type"],
            "properties": {
              "id": {"type": "string"},
              "name": {"type": "string"},
              "type": {"type": "string"},
              "type_version": {"type": "integer"},
              "position": {
                "type": "object",
                "properties": {
                  "x": {"type": "number"},
                  "y": {"type": "number"}
                }
              },
              "parameters": {"type": "object"},
              "annotation": {"type": "string"}
            }
          },
          "insert_at": {"type": "integer", "minimum": 0},
          "node_id": {"type": "string"},
          "parameters": {"type": "object"},
          "from": {"type": "string"},
          "to": {"type": "string"},
          "index": {"type": "integer", "minimum": 0},
          "text": {"type": "string"}
        }
      }
    }
  }
}`

func newBatchRequestSchema() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(batchRequestSchema))
}

// validateBatchBody checks a raw request body against the batch schema and
// returns a readable list of findings when it does not conform.
func validateBatchBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("body is not valid JSON: %w", err)
	}

	if result.Valid() {
		return nil
	}

	findings := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		findings = append(findings, desc.String())
	}

	return fmt.Errorf("body does not match batch schema: %s", strings.Join(findings, "; "))
}
