package mcpserver

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func stringReader(s string) *strings.Reader {
	return strings.NewReader(s)
}

// planStepSchemaDoc supplements the go-sdk's own reflected-struct schema
// (which only checks field types) with the business rule that a plan must
// carry at least one step — caught here, before PathGuard or the executor
// ever see the request, rather than surfacing as a generic "empty plan"
// error deep in taskmodel.ValidatePlan.
const planStepSchemaDoc = `{
	"type": "object",
	"properties": {
		"steps": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "title", "task"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"title": {"type": "string", "minLength": 1},
					"task": {"type": "string", "minLength": 1}
				}
			}
		}
	},
	"required": ["steps"]
}`

var planSchema = mustCompile("plan.json", planStepSchemaDoc)

func mustCompile(name, doc string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, stringReader(doc)); err != nil {
		panic(fmt.Sprintf("mcpserver: invalid embedded schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("mcpserver: compile embedded schema %s: %v", name, err))
	}
	return schema
}

// validatePlanShape runs raw against the plan schema, returning a caller-
// facing error naming exactly which rule failed.
func validatePlanShape(raw any) error {
	if err := planSchema.Validate(raw); err != nil {
		return fmt.Errorf("request does not match plan schema: %w", err)
	}
	return nil
}
