package scenario

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Envelope mirrors the schema_version scenario file shape. It exists so the
// JSON Schema can be generated from Go types rather than maintained by hand.
type Envelope struct {
	SchemaVersion string           `json:"schema_version"`
	Metadata      EnvelopeMetadata `json:"metadata"`
	Actions       []EnvelopeAction `json:"actions"`
}

// EnvelopeMetadata is the metadata block of a schema_version file.
type EnvelopeMetadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	Device      *EnvelopeDevice `json:"device,omitempty"`
}

// EnvelopeDevice identifies the device a scenario was recorded against.
type EnvelopeDevice struct {
	Serial string `json:"serial,omitempty"`
	ID     string `json:"id,omitempty"`
}

// EnvelopeAction is one recorded action entry.
type EnvelopeAction struct {
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params,omitempty"`
	DelayBeforeMs int            `json:"delay_before_ms,omitempty"`
	Assert        string         `json:"assert,omitempty"`
}

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from the
// Go Envelope struct using invopop/jsonschema. Extra metadata keys are
// allowed: recordings carry tool-specific annotations the engine ignores.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false
	r.AllowAdditionalProperties = true

	s := r.Reflect(&Envelope{})
	s.ID = "https://github.com/droidloop/droidloop/schemas/scenario-v1.json"
	s.Title = "Recorded Automation Scenario v1"
	s.Description = "Schema for recorded scenario JSON files (schema_version shape)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
