package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/droidloop/droidloop/pkg/scenario"
)

func successResult(index int, retries int, durationMs float64) *ActionResult {
	return &ActionResult{
		ActionIndex: index,
		ToolName:    "click_at",
		Status:      StatusSuccess,
		Result:      true,
		Metrics:     &ExecutionMetrics{DurationMs: durationMs, RetryCount: retries},
	}
}

func failedResult(index int) *ActionResult {
	return &ActionResult{
		ActionIndex: index,
		ToolName:    "click_at",
		Status:      StatusFailed,
		Error:       "element not found",
		Metrics:     &ExecutionMetrics{DurationMs: 50, RetryCount: 3},
	}
}

// TestGenerateAggregates checks the computed statistics over a mixed run.
func TestGenerateAggregates(t *testing.T) {
	r := New()
	r.AddActionResult(successResult(0, 0, 100))
	r.AddActionResult(successResult(1, 2, 200))
	r.AddActionResult(failedResult(2))
	r.AddActionResult(&ActionResult{ActionIndex: 3, Status: StatusSkipped})

	s := r.Generate(12.3456)

	if s.Success {
		t.Error("Success = true, want false with a failed action")
	}
	if s.Execution.TotalActions != 4 {
		t.Errorf("TotalActions = %d, want 4", s.Execution.TotalActions)
	}
	if s.Execution.SuccessfulActions != 2 {
		t.Errorf("SuccessfulActions = %d, want 2", s.Execution.SuccessfulActions)
	}
	if s.Execution.FailedActions != 1 {
		t.Errorf("FailedActions = %d, want 1", s.Execution.FailedActions)
	}
	if s.Execution.SkippedActions != 1 {
		t.Errorf("SkippedActions = %d, want 1", s.Execution.SkippedActions)
	}
	if s.Execution.SuccessRate != 50.0 {
		t.Errorf("SuccessRate = %v, want 50.0", s.Execution.SuccessRate)
	}
	if s.Execution.TotalRetries != 5 {
		t.Errorf("TotalRetries = %d, want 5", s.Execution.TotalRetries)
	}
	// (100 + 200 + 50) / 3 results with metrics
	if s.Execution.AvgActionDurationMs != 116.67 {
		t.Errorf("AvgActionDurationMs = %v, want 116.67", s.Execution.AvgActionDurationMs)
	}
	if s.Execution.DurationSeconds != 12.35 {
		t.Errorf("DurationSeconds = %v, want 12.35", s.Execution.DurationSeconds)
	}
	if len(s.FailedActions) != 1 || s.FailedActions[0].ActionIndex != 2 {
		t.Errorf("FailedActions = %v, want only index 2", s.FailedActions)
	}
}

// TestGenerateEmptyRun checks the zero-action guards: no NaN rates, empty
// slices rather than nulls, and success with nothing failed.
func TestGenerateEmptyRun(t *testing.T) {
	s := New().Generate(0)

	if !s.Success {
		t.Error("Success = false, want true for an empty run with no errors")
	}
	if s.Execution.SuccessRate != 0 {
		t.Errorf("SuccessRate = %v, want 0", s.Execution.SuccessRate)
	}
	if s.Execution.AvgActionDurationMs != 0 {
		t.Errorf("AvgActionDurationMs = %v, want 0", s.Execution.AvgActionDurationMs)
	}
	if s.ActionResults == nil || s.Errors == nil || s.FailedActions == nil {
		t.Error("slices must be empty, not nil, so they serialize as [] not null")
	}
}

// TestGenerateAllSuccessful checks the 100 percent rate path.
func TestGenerateAllSuccessful(t *testing.T) {
	r := New()
	r.AddActionResult(successResult(0, 0, 10))
	r.AddActionResult(successResult(1, 0, 10))

	s := r.Generate(1)
	if !s.Success {
		t.Error("Success = false, want true")
	}
	if s.Execution.SuccessRate != 100.0 {
		t.Errorf("SuccessRate = %v, want 100.0", s.Execution.SuccessRate)
	}
}

// TestGlobalErrorForcesFailure checks a load-level error fails the run even
// with zero actions.
func TestGlobalErrorForcesFailure(t *testing.T) {
	r := New()
	r.AddGlobalError("replay error: scenario not found: x.json")

	s := r.Generate(0)
	if s.Success {
		t.Error("Success = true, want false with a global error")
	}
	if len(s.Errors) != 1 || !strings.Contains(s.Errors[0], "not found") {
		t.Errorf("Errors = %v, want the recorded global error", s.Errors)
	}
}

// TestSetScenarioMetadata checks only the compact summary is embedded.
func TestSetScenarioMetadata(t *testing.T) {
	r := New()
	r.SetScenarioMetadata(&scenario.Scenario{
		SessionName: "login flow",
		DeviceID:    "emulator-5554",
		RecordedAt:  "2026-01-15T10:30:00Z",
		Actions:     make([]scenario.Action, 3),
		Metadata:    map[string]any{"extra": "ignored"},
	})

	s := r.Generate(0)
	if s.Scenario.SessionName != "login flow" {
		t.Errorf("SessionName = %q, want login flow", s.Scenario.SessionName)
	}
	if s.Scenario.TotalActions != 3 {
		t.Errorf("Scenario.TotalActions = %d, want 3", s.Scenario.TotalActions)
	}
}

// TestActionResultJSONNulls checks the wire format: stringified result,
// null for absent screenshots and error, rounded duration.
func TestActionResultJSONNulls(t *testing.T) {
	res := &ActionResult{
		ActionIndex: 0,
		ToolName:    "click_at",
		Parameters:  map[string]any{"x": 1.0},
		Status:      StatusSuccess,
		Result:      true,
		Metrics:     &ExecutionMetrics{DurationMs: 123.456, RetryCount: 1},
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if wire["result"] != "true" {
		t.Errorf("result = %v, want stringified \"true\"", wire["result"])
	}
	for _, key := range []string{"error", "screenshot_before", "screenshot_after", "screenshot_diff"} {
		if v, ok := wire[key]; !ok || v != nil {
			t.Errorf("%s = %v, want explicit null", key, v)
		}
	}
	if wire["duration_ms"] != 123.46 {
		t.Errorf("duration_ms = %v, want 123.46", wire["duration_ms"])
	}
	if wire["retry_count"] != 1.0 {
		t.Errorf("retry_count = %v, want 1", wire["retry_count"])
	}
}

// TestActionResultJSONFailure checks a failed result carries its error and
// a null result.
func TestActionResultJSONFailure(t *testing.T) {
	data, err := json.Marshal(failedResult(2))
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatal(err)
	}
	if wire["result"] != nil {
		t.Errorf("result = %v, want null", wire["result"])
	}
	if wire["error"] != "element not found" {
		t.Errorf("error = %v, want the failure message", wire["error"])
	}
	if wire["status"] != "failed" {
		t.Errorf("status = %v, want failed", wire["status"])
	}
}

// TestSaveToFile checks the summary writes as valid indented JSON.
func TestSaveToFile(t *testing.T) {
	r := New()
	r.AddActionResult(successResult(0, 0, 10))
	s := r.Generate(1)

	path := filepath.Join(t.TempDir(), "report.json")
	if err := s.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("written report is not valid JSON: %v", err)
	}
	execution, ok := back["execution"].(map[string]any)
	if !ok {
		t.Fatalf("report missing execution block: %v", back)
	}
	if execution["total_actions"] != 1.0 {
		t.Errorf("round-tripped total_actions = %v, want 1", execution["total_actions"])
	}
}
