package execution

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/droidloop/droidloop/internal/logger"
	"github.com/droidloop/droidloop/pkg/dispatch"
	"github.com/droidloop/droidloop/pkg/report"
	"github.com/droidloop/droidloop/pkg/scenario"
)

// Context executes single actions with retry, backoff, and screenshot
// capture. One Context serves one replay; it is not safe for concurrent use.
type Context struct {
	deviceID string
	cfg      Config
	au       dispatch.Automator
	log      logger.Logger

	// injectable for tests
	sleep func(time.Duration)
	now   func() time.Time
}

// NewContext creates an execution context for one replay against one device.
// The screenshot directory is created eagerly; failure to create it is
// logged and screenshot capture will simply fail non-fatally later.
func NewContext(deviceID string, cfg Config, au dispatch.Automator, log logger.Logger) *Context {
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = DefaultConfig().ScreenshotDir
	}
	if err := os.MkdirAll(cfg.ScreenshotDir, 0o755); err != nil {
		log.Warn("create screenshot dir failed", "dir", cfg.ScreenshotDir, "error", err)
	}
	return &Context{
		deviceID: deviceID,
		cfg:      cfg,
		au:       au,
		log:      log,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Execute runs one recorded action through ExecuteWithRetry and then applies
// the action's optional assertion to a successful result. A failed assertion
// marks the action failed without further retries.
func (c *Context) Execute(act scenario.Action, index int, d *dispatch.Dispatcher) *report.ActionResult {
	res := c.ExecuteWithRetry(act.Tool, act.Params, index, d)
	if act.Assert == "" || res.Status != report.StatusSuccess {
		return res
	}

	ok, err := evalAssertion(act.Assert, res.Result, act.Tool, act.Params)
	if err != nil {
		res.Status = report.StatusFailed
		res.Error = fmt.Sprintf("assertion %q: %v", act.Assert, err)
	} else if !ok {
		res.Status = report.StatusFailed
		res.Error = fmt.Sprintf("assertion %q evaluated to false", act.Assert)
	}
	return res
}

// ExecuteWithRetry dispatches the tool up to RetryAttempts times with
// exponential backoff and returns exactly one ActionResult. On success the
// metrics record the zero-based attempt index as the retry count; on
// exhaustion they record RetryAttempts. No sleep follows the final attempt.
func (c *Context) ExecuteWithRetry(tool string, params map[string]any, index int, d *dispatch.Dispatcher) *report.ActionResult {
	var screenshotBefore, screenshotAfter string

	if c.cfg.CaptureScreenshots {
		screenshotBefore = c.captureScreenshot(index, "before")
	}

	start := c.now()
	var lastError string

	for attempt := 0; attempt < c.cfg.RetryAttempts; attempt++ {
		result, err := d.Dispatch(tool, params)
		if err == nil {
			end := c.now()
			if c.cfg.CaptureScreenshots {
				screenshotAfter = c.captureScreenshot(index, "after")
			}
			return &report.ActionResult{
				ActionIndex: index,
				ToolName:    tool,
				Parameters:  params,
				Status:      report.StatusSuccess,
				Result:      result,
				Metrics: &report.ExecutionMetrics{
					StartTime:          start,
					EndTime:            end,
					DurationMs:         end.Sub(start).Seconds() * 1000,
					RetryCount:         attempt,
					ScreenshotCaptured: c.cfg.CaptureScreenshots,
				},
				ScreenshotBefore: screenshotBefore,
				ScreenshotAfter:  screenshotAfter,
			}
		}

		lastError = err.Error()

		// An unknown tool fails identically on every attempt; retrying
		// would just burn the remaining attempts.
		var unknown *dispatch.UnknownToolError
		if errors.As(err, &unknown) {
			break
		}

		if attempt < c.cfg.RetryAttempts-1 {
			c.sleep(c.backoff(attempt))
		}
	}

	end := c.now()
	if c.cfg.ScreenshotOnError {
		screenshotAfter = c.captureScreenshot(index, "error")
	}
	return &report.ActionResult{
		ActionIndex: index,
		ToolName:    tool,
		Parameters:  params,
		Status:      report.StatusFailed,
		Error:       lastError,
		Metrics: &report.ExecutionMetrics{
			StartTime:  start,
			EndTime:    end,
			DurationMs: end.Sub(start).Seconds() * 1000,
			RetryCount: c.cfg.RetryAttempts,
		},
		ScreenshotBefore: screenshotBefore,
		ScreenshotAfter:  screenshotAfter,
	}
}

// backoff computes the exponential delay after the given zero-based attempt.
func (c *Context) backoff(attempt int) time.Duration {
	seconds := float64(c.cfg.RetryDelayMs) / 1000.0 * math.Pow(2, float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}

// captureScreenshot writes one stage image and returns its path, or ""
// when capture failed. Capture failure is never fatal to the action.
func (c *Context) captureScreenshot(index int, stage string) string {
	path := filepath.Join(c.cfg.ScreenshotDir, screenshotName(index, stage))
	ok, err := c.au.Screenshot(path, c.deviceID)
	if err != nil {
		c.log.Warn("screenshot capture failed", "stage", stage, "action", index, "error", err)
		return ""
	}
	if !ok {
		c.log.Warn("screenshot capture reported failure", "stage", stage, "action", index)
		return ""
	}
	return path
}

// screenshotName builds the deterministic per-action filename, with the
// index zero-padded to at least three digits.
func screenshotName(index int, stage string) string {
	return fmt.Sprintf("action_%03d_%s.png", index, stage)
}
