package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Issue is a single semantic validation finding with location context.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i *Issue) Error() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// ValidateFile checks a scenario file structurally (via Parse) and, for
// schema_version files, semantically against the generated JSON Schema.
// Legacy session_name files predate the schema and only get the structural
// checks. An empty result means the file is valid.
func ValidateFile(path string) []*Issue {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*Issue{{Message: (&NotFoundError{Path: path}).Error()}}
		}
		return []*Issue{{Message: fmt.Sprintf("read scenario: %v", err)}}
	}

	if _, err := Parse(data); err != nil {
		return []*Issue{{Message: err.Error()}}
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return []*Issue{{Message: fmt.Sprintf("parse scenario: %v", err)}}
	}
	if !hasKey(raw, "schema_version") {
		return nil // old shape: no schema to validate against
	}
	return validateSemantic(raw)
}

// validateSemantic validates the document against the generated JSON Schema.
func validateSemantic(doc map[string]any) []*Issue {
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*Issue{{Message: fmt.Sprintf("generate schema: %v", err)}}
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*Issue{{Message: fmt.Sprintf("unmarshal schema: %v", err)}}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("scenario-v1.json", schemaDoc); err != nil {
		return []*Issue{{Message: fmt.Sprintf("add schema resource: %v", err)}}
	}
	sch, err := c.Compile("scenario-v1.json")
	if err != nil {
		return []*Issue{{Message: fmt.Sprintf("compile schema: %v", err)}}
	}

	if err := sch.Validate(any(doc)); err != nil {
		var issues []*Issue
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				issues = append(issues, &Issue{
					Path:    strings.Join(cause.InstanceLocation, "/"),
					Message: fmt.Sprintf("%v", cause.ErrorKind),
				})
			}
		} else {
			issues = append(issues, &Issue{Message: err.Error()})
		}
		return issues
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
