// Package execution wraps a single action dispatch with bounded retry,
// exponential backoff, speed-scaled timing, and screenshot evidence capture.
package execution

import "fmt"

// Config controls one replay invocation. Immutable for its duration.
type Config struct {
	// RetryAttempts is the total number of dispatch attempts per action.
	RetryAttempts int

	// RetryDelayMs is the base backoff unit; attempt n (zero-based) waits
	// RetryDelayMs/1000 * 2^n seconds before the next try.
	RetryDelayMs int

	// CaptureScreenshots enables before/after screenshots per action.
	CaptureScreenshots bool

	// ScreenshotOnError captures an error-stage screenshot when an action
	// exhausts its attempts.
	ScreenshotOnError bool

	// SpeedMultiplier scales recorded inter-action gaps inversely:
	// 2.0 halves them, 0.5 doubles them.
	SpeedMultiplier float64

	// StopOnError halts the replay at the first non-success result.
	StopOnError bool

	// WaitForScreenOn issues a best-effort screen-on before the first action.
	WaitForScreenOn bool

	// ScreenshotDir is the working directory for captured images,
	// created if absent.
	ScreenshotDir string
}

// DefaultConfig returns the standard replay configuration.
func DefaultConfig() Config {
	return Config{
		RetryAttempts:      3,
		RetryDelayMs:       500,
		CaptureScreenshots: false,
		ScreenshotOnError:  true,
		SpeedMultiplier:    1.0,
		StopOnError:        false,
		WaitForScreenOn:    true,
		ScreenshotDir:      "replay_screenshots",
	}
}

// Validate rejects configurations that cannot drive a replay. These are
// programmer errors, not replay failures, so they surface as errors here
// rather than as report entries.
func (c Config) Validate() error {
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be >= 1, got %d", c.RetryAttempts)
	}
	if c.RetryDelayMs < 0 {
		return fmt.Errorf("retry_delay_ms must be >= 0, got %d", c.RetryDelayMs)
	}
	if c.SpeedMultiplier <= 0 {
		return fmt.Errorf("speed_multiplier must be > 0, got %v", c.SpeedMultiplier)
	}
	return nil
}
