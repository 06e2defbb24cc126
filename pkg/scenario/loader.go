package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Load reads and normalizes a scenario JSON file. It returns *NotFoundError
// when the file is missing, *ParseError when the content is not valid JSON,
// and *ValidationError when neither recognized shape is present or the
// actions field is absent or not an array.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return s, nil
}

// Parse normalizes scenario JSON bytes. The two accepted shapes are
// disambiguated by key presence:
//
//   - new: top-level schema_version and metadata both present
//   - old: top-level session_name and device_id both present
func Parse(data []byte) (*Scenario, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Err: err}
	}

	var s *Scenario
	switch {
	case hasKey(raw, "schema_version") && hasMapKey(raw, "metadata"):
		normalized, err := normalizeNewShape(raw)
		if err != nil {
			return nil, err
		}
		s = normalized
	case hasKey(raw, "session_name") && hasKey(raw, "device_id"):
		s = normalizeOldShape(raw)
	default:
		return nil, &ValidationError{Message: "unrecognized scenario shape: expected schema_version/metadata or session_name/device_id"}
	}

	// Shared validation: both shapes must carry a list-typed actions field.
	actions, err := extractActions(raw)
	if err != nil {
		return nil, err
	}
	s.Actions = actions
	return s, nil
}

// normalizeNewShape handles schema_version files. metadata.name is required;
// device identity resolves through metadata.device.serial, metadata.device.id,
// the first action's device_id param, then the literal "unknown".
func normalizeNewShape(raw map[string]any) (*Scenario, error) {
	meta := raw["metadata"].(map[string]any)

	name, ok := meta["name"].(string)
	if !ok || name == "" {
		return nil, &ValidationError{Message: "metadata.name is required"}
	}

	recordedAt, _ := meta["created_at"].(string)

	return &Scenario{
		SessionName: name,
		DeviceID:    resolveDeviceID(meta, raw),
		RecordedAt:  recordedAt,
		Metadata:    meta,
	}, nil
}

// normalizeOldShape handles legacy session_name/device_id files as-is.
func normalizeOldShape(raw map[string]any) *Scenario {
	sessionName, _ := raw["session_name"].(string)
	deviceID, _ := raw["device_id"].(string)
	recordedAt, _ := raw["timestamp"].(string)
	return &Scenario{
		SessionName: sessionName,
		DeviceID:    deviceID,
		RecordedAt:  recordedAt,
	}
}

func resolveDeviceID(meta, raw map[string]any) string {
	if dev, ok := meta["device"].(map[string]any); ok {
		if serial, ok := dev["serial"].(string); ok && serial != "" {
			return serial
		}
		if id, ok := dev["id"].(string); ok && id != "" {
			return id
		}
	}
	// Fall back to the device_id recorded in the first action's params.
	if actions, ok := raw["actions"].([]any); ok && len(actions) > 0 {
		if first, ok := actions[0].(map[string]any); ok {
			if params, ok := first["params"].(map[string]any); ok {
				if id, ok := params["device_id"].(string); ok && id != "" {
					return id
				}
			}
		}
	}
	return "unknown"
}

func extractActions(raw map[string]any) ([]Action, error) {
	rawActions, ok := raw["actions"]
	if !ok {
		return nil, &ValidationError{Message: "missing required field 'actions'"}
	}
	list, ok := rawActions.([]any)
	if !ok {
		return nil, &ValidationError{Message: "'actions' must be a list"}
	}

	actions := make([]Action, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("actions[%d] is not an object", i)}
		}
		act := Action{Params: map[string]any{}}
		act.Tool, _ = entry["tool"].(string)
		if params, ok := entry["params"].(map[string]any); ok {
			act.Params = params
		}
		if delay, ok := entry["delay_before_ms"].(float64); ok && delay > 0 {
			act.DelayBeforeMs = int(delay)
		}
		act.Assert, _ = entry["assert"].(string)
		actions = append(actions, act)
	}
	return actions, nil
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func hasMapKey(m map[string]any, key string) bool {
	_, ok := m[key].(map[string]any)
	return ok
}
