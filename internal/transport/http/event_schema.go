package httptransport

import (
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const workflowEventSchemaURL = "https://legal-assist.local/schemas/workflow-event.json"

// node and status presence is checked before the schema runs so the caller
// gets the dedicated "missing required fields" message.
const workflowEventSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "executionId": { "type": ["string", "null"] },
    "node":        { "type": "string", "minLength": 1 },
    "status":      { "type": "string", "minLength": 1 },
    "timestamp":   { "type": ["string", "null"] }
  }
}`

func compileWorkflowEventSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(workflowEventSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal workflow event schema: %w", err)
	}
	if err := c.AddResource(workflowEventSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add workflow event schema resource: %w", err)
	}

	sch, err := c.Compile(workflowEventSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile workflow event schema: %w", err)
	}
	return sch, nil
}

func mustCompileWorkflowEventSchema() *jsonschema.Schema {
	sch, err := compileWorkflowEventSchema()
	if err != nil {
		panic(err)
	}
	return sch
}
