// Package scenario loads recorded automation scenarios and normalizes the
// two historical file shapes into one canonical in-memory form.
package scenario

import "fmt"

// Action is one recorded operation: a tool name, its parameter map, and the
// gap observed before it was originally performed. Immutable once loaded.
type Action struct {
	Tool          string
	Params        map[string]any
	DelayBeforeMs int

	// Assert is an optional expr-lang expression evaluated against the
	// dispatch result after a successful execution. Empty means no check.
	Assert string
}

// Scenario is a recorded, ordered sequence of actions plus identifying
// metadata. Read-only during replay.
type Scenario struct {
	SessionName string
	DeviceID    string
	RecordedAt  string
	Actions     []Action

	// Metadata preserves the full metadata map of schema_version files
	// verbatim for reporting. Nil for old-shape files.
	Metadata map[string]any
}

// NotFoundError indicates the scenario file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("scenario not found: %s", e.Path)
}

// ParseError indicates the file content is not valid JSON.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse scenario %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError indicates the document parsed but matches neither
// recognized scenario shape, or violates a structural invariant.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid scenario: " + e.Message
}
