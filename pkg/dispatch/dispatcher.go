// Package dispatch routes recorded action tool names to the callable
// capabilities exposed by a device-automation collaborator.
package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/droidloop/droidloop/internal/logger"
)

// ToolFunc is one callable device capability: parameter map in, opaque
// result out.
type ToolFunc func(params map[string]any) (any, error)

// Automator is the device-automation collaborator consumed during replay.
type Automator interface {
	// Tools returns the callable capabilities keyed by tool name.
	Tools() map[string]ToolFunc

	// Screenshot captures the screen to path on the given device. A false
	// return without an error means the device reported capture failure.
	Screenshot(path, deviceID string) (bool, error)
}

// ErrBadParams marks a capability failure caused by a parameter or type
// mismatch. Capabilities wrap it so the dispatcher can attach the declared
// signature to the error for diagnosability.
var ErrBadParams = errors.New("parameter mismatch")

// UnknownToolError is returned when a recorded tool name has no registered
// capability. The message enumerates all registered names so an operator
// can spot recording/registry drift.
type UnknownToolError struct {
	Tool      string
	Supported []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %q not found in registry. Supported tools: %s",
		e.Tool, strings.Join(e.Supported, ", "))
}

// Dispatcher maps symbolic tool names to capabilities. The registry is
// built once at construction and is read-only afterwards.
type Dispatcher struct {
	tools map[string]ToolFunc
	log   logger.Logger
}

// NewDispatcher builds the registry from the collaborator's capability map.
func NewDispatcher(au Automator, log logger.Logger) *Dispatcher {
	tools := make(map[string]ToolFunc)
	for name, fn := range au.Tools() {
		tools[name] = fn
	}
	return &Dispatcher{tools: tools, log: log}
}

// Dispatch executes the named tool with the recorded parameters. Parameter
// reconciliation runs on a copy of the map before the capability is invoked.
func (d *Dispatcher) Dispatch(tool string, params map[string]any) (any, error) {
	fn, ok := d.tools[tool]
	if !ok {
		return nil, &UnknownToolError{Tool: tool, Supported: d.SupportedTools()}
	}

	reconciled := reconcile(tool, params)

	d.log.Debug("dispatching tool", "tool", tool)
	result, err := fn(reconciled)
	if err != nil {
		if errors.Is(err, ErrBadParams) {
			return nil, fmt.Errorf("parameter error for %s: %w\nexpected signature: %s\nprovided parameters: %v",
				tool, err, signature(tool), reconciled)
		}
		return nil, err
	}
	return result, nil
}

// SupportedTools returns the sorted names of all registered tools.
func (d *Dispatcher) SupportedTools() []string {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupported reports whether the tool has a registered capability.
func (d *Dispatcher) IsSupported(tool string) bool {
	_, ok := d.tools[tool]
	return ok
}

// Signature returns the declared parameter signature for a catalog tool.
func (d *Dispatcher) Signature(tool string) string {
	return signature(tool)
}
