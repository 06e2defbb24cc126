// Package report accumulates per-action replay results and produces the
// final execution summary with aggregate statistics.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/droidloop/droidloop/pkg/scenario"
)

// Status is the outcome of a single replayed action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusTimeout Status = "timeout"
)

// ExecutionMetrics holds timing and retry data for one action execution,
// covering the full attempt sequence.
type ExecutionMetrics struct {
	StartTime          time.Time
	EndTime            time.Time
	DurationMs         float64
	RetryCount         int
	TimeoutOccurred    bool
	ScreenshotCaptured bool
}

// ActionResult is the immutable record of one replayed action. Screenshot
// paths are empty strings when no capture happened; they serialize as null.
type ActionResult struct {
	ActionIndex      int
	ToolName         string
	Parameters       map[string]any
	Status           Status
	Result           any
	Error            string
	Metrics          *ExecutionMetrics
	ScreenshotBefore string
	ScreenshotAfter  string
	ScreenshotDiff   string
}

// actionResultJSON is the wire form of ActionResult. Nullable fields use
// pointers so absent values serialize as JSON null, matching the recorded
// report format consumed by downstream tooling.
type actionResultJSON struct {
	ActionIndex      int            `json:"action_index"`
	ToolName         string         `json:"tool_name"`
	Parameters       map[string]any `json:"parameters"`
	Status           Status         `json:"status"`
	Result           *string        `json:"result"`
	Error            *string        `json:"error"`
	DurationMs       *float64       `json:"duration_ms"`
	RetryCount       int            `json:"retry_count"`
	ScreenshotBefore *string        `json:"screenshot_before"`
	ScreenshotAfter  *string        `json:"screenshot_after"`
	ScreenshotDiff   *string        `json:"screenshot_diff"`
}

// MarshalJSON serializes the result in the report wire format: the opaque
// result value is stringified, durations are rounded to 2 decimals, and
// missing screenshots/errors become null.
func (r *ActionResult) MarshalJSON() ([]byte, error) {
	out := actionResultJSON{
		ActionIndex: r.ActionIndex,
		ToolName:    r.ToolName,
		Parameters:  r.Parameters,
		Status:      r.Status,
	}
	if r.Result != nil {
		s := fmt.Sprint(r.Result)
		out.Result = &s
	}
	if r.Error != "" {
		e := r.Error
		out.Error = &e
	}
	if r.Metrics != nil {
		d := round2(r.Metrics.DurationMs)
		out.DurationMs = &d
		out.RetryCount = r.Metrics.RetryCount
	}
	out.ScreenshotBefore = nullable(r.ScreenshotBefore)
	out.ScreenshotAfter = nullable(r.ScreenshotAfter)
	out.ScreenshotDiff = nullable(r.ScreenshotDiff)
	return json.Marshal(out)
}

// ScenarioInfo is the compact scenario summary embedded in the report.
type ScenarioInfo struct {
	SessionName  string `json:"session_name"`
	DeviceID     string `json:"device_id"`
	RecordedAt   string `json:"recorded_at"`
	TotalActions int    `json:"total_actions"`
}

// ExecutionStats holds the aggregate statistics computed on Generate.
type ExecutionStats struct {
	DurationSeconds     float64 `json:"duration_seconds"`
	TotalActions        int     `json:"total_actions"`
	SuccessfulActions   int     `json:"successful_actions"`
	FailedActions       int     `json:"failed_actions"`
	SkippedActions      int     `json:"skipped_actions"`
	SuccessRate         float64 `json:"success_rate"`
	TotalRetries        int     `json:"total_retries"`
	AvgActionDurationMs float64 `json:"avg_action_duration_ms"`
}

// Summary is the final replay report returned to callers and written to disk.
type Summary struct {
	Success       bool            `json:"success"`
	Scenario      ScenarioInfo    `json:"scenario"`
	Execution     ExecutionStats  `json:"execution"`
	ActionResults []*ActionResult `json:"action_results"`
	Errors        []string        `json:"errors"`
	FailedActions []*ActionResult `json:"failed_actions"`
}

// Report accumulates results during one replay. It is owned by a single
// replay invocation and must not be shared across concurrent replays.
type Report struct {
	scenarioInfo  ScenarioInfo
	actionResults []*ActionResult
	globalErrors  []string
}

// New creates an empty report accumulator.
func New() *Report {
	return &Report{}
}

// SetScenarioMetadata extracts the compact scenario summary (not the full
// metadata blob) for embedding in the generated report.
func (r *Report) SetScenarioMetadata(s *scenario.Scenario) {
	r.scenarioInfo = ScenarioInfo{
		SessionName:  s.SessionName,
		DeviceID:     s.DeviceID,
		RecordedAt:   s.RecordedAt,
		TotalActions: len(s.Actions),
	}
}

// AddActionResult appends one action result. Results are kept in the exact
// order actions were attempted and are never overwritten.
func (r *Report) AddActionResult(res *ActionResult) {
	r.actionResults = append(r.actionResults, res)
}

// AddGlobalError records an error not attributable to a single action
// (e.g. a scenario load failure). Any global error forces success=false.
func (r *Report) AddGlobalError(msg string) {
	r.globalErrors = append(r.globalErrors, msg)
}

// Generate computes aggregate statistics and produces the final summary.
// The accumulator is not meant to be reused afterwards.
func (r *Report) Generate(durationSeconds float64) *Summary {
	total := len(r.actionResults)
	var successful, failed, skipped, totalRetries int
	var durationSum float64
	var withMetrics int

	for _, res := range r.actionResults {
		switch res.Status {
		case StatusSuccess:
			successful++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
		if res.Metrics != nil {
			durationSum += res.Metrics.DurationMs
			totalRetries += res.Metrics.RetryCount
			withMetrics++
		}
	}

	// Guard the zero-action case: rates and averages are 0, not NaN.
	successRate := 0.0
	if total > 0 {
		successRate = float64(successful) / float64(total) * 100
	}
	avgDuration := 0.0
	if withMetrics > 0 {
		avgDuration = durationSum / float64(withMetrics)
	}

	results := r.actionResults
	if results == nil {
		results = []*ActionResult{}
	}
	failedResults := []*ActionResult{}
	for _, res := range results {
		if res.Status == StatusFailed {
			failedResults = append(failedResults, res)
		}
	}
	errs := r.globalErrors
	if errs == nil {
		errs = []string{}
	}

	return &Summary{
		Success:  failed == 0 && len(r.globalErrors) == 0,
		Scenario: r.scenarioInfo,
		Execution: ExecutionStats{
			DurationSeconds:     round2(durationSeconds),
			TotalActions:        total,
			SuccessfulActions:   successful,
			FailedActions:       failed,
			SkippedActions:      skipped,
			SuccessRate:         round2(successRate),
			TotalRetries:        totalRetries,
			AvgActionDurationMs: round2(avgDuration),
		},
		ActionResults: results,
		Errors:        errs,
		FailedActions: failedResults,
	}
}

// SaveToFile writes the summary as indented JSON.
func (s *Summary) SaveToFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
