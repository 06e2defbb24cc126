package adb

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/droidloop/droidloop/internal/logger"
	"github.com/droidloop/droidloop/pkg/dispatch"
)

// recordedAdb captures every adb invocation instead of running the binary.
type recordedAdb struct {
	calls [][]string
	out   []byte
	err   error
}

func newRecordedAutomator(t *testing.T) (*Automator, *recordedAdb) {
	t.Helper()
	rec := &recordedAdb{out: []byte("ok")}
	a := New("adb", logger.Nop())
	a.run = func(args ...string) ([]byte, error) {
		rec.calls = append(rec.calls, args)
		return rec.out, rec.err
	}
	return a, rec
}

func lastCall(t *testing.T, rec *recordedAdb) []string {
	t.Helper()
	if len(rec.calls) == 0 {
		t.Fatal("no adb calls recorded")
	}
	return rec.calls[len(rec.calls)-1]
}

// TestClickAtBuildsTapCommand checks the shell input tap invocation.
func TestClickAtBuildsTapCommand(t *testing.T) {
	a, rec := newRecordedAutomator(t)
	result, err := a.clickAt(map[string]any{"x": 540.0, "y": 1200.0})
	if err != nil {
		t.Fatalf("clickAt() error: %v", err)
	}
	if result != true {
		t.Errorf("result = %v, want true", result)
	}
	got := strings.Join(lastCall(t, rec), " ")
	if got != "shell input tap 540 1200" {
		t.Errorf("adb args = %q, want shell input tap 540 1200", got)
	}
}

// TestDeviceArgsPrefixesSerial checks -s is added for a real device_id and
// omitted for empty or "unknown".
func TestDeviceArgsPrefixesSerial(t *testing.T) {
	got := deviceArgs(map[string]any{"device_id": "emulator-5554"}, "shell", "input", "tap")
	if len(got) != 5 || got[0] != "-s" || got[1] != "emulator-5554" {
		t.Errorf("deviceArgs = %v, want -s emulator-5554 prefix", got)
	}

	got = deviceArgs(map[string]any{"device_id": "unknown"}, "shell")
	if len(got) != 1 || got[0] != "shell" {
		t.Errorf("deviceArgs with unknown device = %v, want no -s prefix", got)
	}

	got = deviceArgs(map[string]any{}, "shell")
	if len(got) != 1 {
		t.Errorf("deviceArgs without device = %v, want no -s prefix", got)
	}
}

// TestSendTextEscapesSpaces checks the %s escaping required by input text.
func TestSendTextEscapesSpaces(t *testing.T) {
	a, rec := newRecordedAutomator(t)
	if _, err := a.sendText(map[string]any{"text": "hello world"}); err != nil {
		t.Fatalf("sendText() error: %v", err)
	}
	call := lastCall(t, rec)
	if call[len(call)-1] != "hello%sworld" {
		t.Errorf("text arg = %q, want hello%%sworld", call[len(call)-1])
	}
}

// TestPressKeyMapsFriendlyNames checks known names map to keycodes and
// unknown names get the KEYCODE_ prefix.
func TestPressKeyMapsFriendlyNames(t *testing.T) {
	a, rec := newRecordedAutomator(t)
	if _, err := a.pressKey(map[string]any{"key": "home"}); err != nil {
		t.Fatalf("pressKey() error: %v", err)
	}
	call := lastCall(t, rec)
	if call[len(call)-1] != "KEYCODE_HOME" {
		t.Errorf("keyevent arg = %q, want KEYCODE_HOME", call[len(call)-1])
	}

	if _, err := a.pressKey(map[string]any{"key": "camera"}); err != nil {
		t.Fatalf("pressKey() error: %v", err)
	}
	call = lastCall(t, rec)
	if call[len(call)-1] != "KEYCODE_CAMERA" {
		t.Errorf("keyevent arg = %q, want KEYCODE_CAMERA", call[len(call)-1])
	}
}

// TestMissingParamsWrapErrBadParams checks parameter failures are
// recognizable by the dispatcher.
func TestMissingParamsWrapErrBadParams(t *testing.T) {
	a, _ := newRecordedAutomator(t)

	_, err := a.clickAt(map[string]any{"y": 10.0})
	if !errors.Is(err, dispatch.ErrBadParams) {
		t.Errorf("clickAt missing x: error = %v, want ErrBadParams", err)
	}

	_, err = a.sendText(map[string]any{})
	if !errors.Is(err, dispatch.ErrBadParams) {
		t.Errorf("sendText missing text: error = %v, want ErrBadParams", err)
	}

	_, err = a.startApp(map[string]any{"package_name": 42.0})
	if !errors.Is(err, dispatch.ErrBadParams) {
		t.Errorf("startApp non-string package: error = %v, want ErrBadParams", err)
	}
}

// TestSwipeDefaultsDuration checks the 500ms default and the seconds-to-ms
// conversion for a recorded duration.
func TestSwipeDefaultsDuration(t *testing.T) {
	a, rec := newRecordedAutomator(t)
	params := map[string]any{"start_x": 100.0, "start_y": 800.0, "end_x": 100.0, "end_y": 200.0}

	if _, err := a.swipe(params); err != nil {
		t.Fatalf("swipe() error: %v", err)
	}
	call := lastCall(t, rec)
	if call[len(call)-1] != "500" {
		t.Errorf("default duration arg = %q, want 500", call[len(call)-1])
	}

	params["duration"] = 1.5
	if _, err := a.swipe(params); err != nil {
		t.Fatalf("swipe() error: %v", err)
	}
	call = lastCall(t, rec)
	if call[len(call)-1] != "1500" {
		t.Errorf("duration arg = %q, want 1500", call[len(call)-1])
	}
}

// TestScreenshotWritesFile checks capture output lands at the target path.
func TestScreenshotWritesFile(t *testing.T) {
	a, rec := newRecordedAutomator(t)
	rec.out = []byte("\x89PNG fake image bytes")
	path := filepath.Join(t.TempDir(), "shot.png")

	ok, err := a.Screenshot(path, "emulator-5554")
	if err != nil {
		t.Fatalf("Screenshot() error: %v", err)
	}
	if !ok {
		t.Fatal("Screenshot() = false, want true")
	}

	call := lastCall(t, rec)
	if call[0] != "-s" || call[1] != "emulator-5554" {
		t.Errorf("adb args = %v, want -s emulator-5554 prefix", call)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("screenshot file not written: %v", err)
	}
	if string(data) != string(rec.out) {
		t.Error("written file does not match screencap output")
	}
}

// TestScreenshotEmptyCaptureReportsFailure checks a zero-byte capture is a
// soft failure, not an error.
func TestScreenshotEmptyCaptureReportsFailure(t *testing.T) {
	a, rec := newRecordedAutomator(t)
	rec.out = nil

	ok, err := a.Screenshot(filepath.Join(t.TempDir(), "shot.png"), "")
	if err != nil {
		t.Fatalf("Screenshot() error: %v", err)
	}
	if ok {
		t.Error("Screenshot() = true, want false for empty capture")
	}
}

// TestHealthcheck checks the boot_completed probe interpretation.
func TestHealthcheck(t *testing.T) {
	a, rec := newRecordedAutomator(t)
	rec.out = []byte("1\n")
	result, err := a.healthcheck(map[string]any{})
	if err != nil {
		t.Fatalf("healthcheck() error: %v", err)
	}
	if result != true {
		t.Errorf("healthcheck = %v, want true for boot_completed=1", result)
	}

	rec.out = []byte("0\n")
	result, err = a.healthcheck(map[string]any{})
	if err != nil {
		t.Fatalf("healthcheck() error: %v", err)
	}
	if result != false {
		t.Errorf("healthcheck = %v, want false for boot_completed=0", result)
	}
}

// TestToolsMatchCatalogNames checks every exposed capability is a declared
// catalog tool, so recordings can reach it by name.
func TestToolsMatchCatalogNames(t *testing.T) {
	names := make(map[string]bool)
	for _, e := range dispatch.CatalogEntries() {
		names[e.Name] = true
	}
	a, _ := newRecordedAutomator(t)
	for tool := range a.Tools() {
		if !names[tool] {
			t.Errorf("capability %q is not in the tool catalog", tool)
		}
	}
}
