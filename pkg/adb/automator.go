// Package adb implements the device-automation collaborator by shelling out
// to the Android Debug Bridge. It covers the coordinate, text, key, app
// lifecycle, screen, and file-transfer subset of the tool catalog; tools
// that need a UI-inspection agent on the device are not exposed here.
package adb

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/droidloop/droidloop/internal/logger"
	"github.com/droidloop/droidloop/pkg/dispatch"
)

// Automator shells out to adb for each capability call.
type Automator struct {
	bin string
	log logger.Logger

	// run is injectable for tests; defaults to executing the adb binary.
	run func(args ...string) ([]byte, error)
}

// New creates an adb automator. bin defaults to "adb" when empty.
func New(bin string, log logger.Logger) *Automator {
	a := &Automator{bin: bin, log: log}
	if a.bin == "" {
		a.bin = "adb"
	}
	a.run = a.execAdb
	return a
}

func (a *Automator) execAdb(args ...string) ([]byte, error) {
	cmd := exec.Command(a.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("adb %s: %s", strings.Join(args, " "), msg)
	}
	return stdout.Bytes(), nil
}

// deviceArgs prefixes -s <serial> when the params carry a device_id.
func deviceArgs(params map[string]any, rest ...string) []string {
	if id, ok := params["device_id"].(string); ok && id != "" && id != "unknown" {
		return append([]string{"-s", id}, rest...)
	}
	return rest
}

// Tools returns the capability map consumed by the dispatcher.
func (a *Automator) Tools() map[string]dispatch.ToolFunc {
	return map[string]dispatch.ToolFunc{
		"click_at":        a.clickAt,
		"double_click_at": a.doubleClickAt,
		"swipe":           a.swipe,
		"send_text":       a.sendText,
		"press_key":       a.pressKey,
		"screen_on":       a.screenOn,
		"screen_off":      a.screenOff,
		"unlock_screen":   a.unlockScreen,
		"start_app":       a.startApp,
		"stop_app":        a.stopApp,
		"install_app":     a.installApp,
		"uninstall_app":   a.uninstallApp,
		"clear_app_data":  a.clearAppData,
		"set_clipboard":   a.setClipboard,
		"pull_file":       a.pullFile,
		"push_file":       a.pushFile,
		"screenshot":      a.screenshotTool,
		"wait_activity":   a.waitActivity,
		"healthcheck":     a.healthcheck,
	}
}

// Screenshot captures the screen via exec-out screencap and writes it to path.
func (a *Automator) Screenshot(path, deviceID string) (bool, error) {
	args := []string{"exec-out", "screencap", "-p"}
	if deviceID != "" && deviceID != "unknown" {
		args = append([]string{"-s", deviceID}, args...)
	}
	data, err := a.run(args...)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write screenshot: %w", err)
	}
	return true, nil
}

func (a *Automator) clickAt(params map[string]any) (any, error) {
	x, err := floatParam(params, "x")
	if err != nil {
		return nil, err
	}
	y, err := floatParam(params, "y")
	if err != nil {
		return nil, err
	}
	_, err = a.run(deviceArgs(params, "shell", "input", "tap", itoa(x), itoa(y))...)
	return err == nil, err
}

func (a *Automator) doubleClickAt(params map[string]any) (any, error) {
	if _, err := a.clickAt(params); err != nil {
		return nil, err
	}
	return a.clickAt(params)
}

func (a *Automator) swipe(params map[string]any) (any, error) {
	sx, err := floatParam(params, "start_x")
	if err != nil {
		return nil, err
	}
	sy, err := floatParam(params, "start_y")
	if err != nil {
		return nil, err
	}
	ex, err := floatParam(params, "end_x")
	if err != nil {
		return nil, err
	}
	ey, err := floatParam(params, "end_y")
	if err != nil {
		return nil, err
	}
	durationMs := 500
	if d, ok := params["duration"].(float64); ok && d > 0 {
		durationMs = int(d * 1000)
	}
	_, err = a.run(deviceArgs(params, "shell", "input", "swipe",
		itoa(sx), itoa(sy), itoa(ex), itoa(ey), fmt.Sprint(durationMs))...)
	return err == nil, err
}

func (a *Automator) sendText(params map[string]any) (any, error) {
	text, err := strParam(params, "text")
	if err != nil {
		return nil, err
	}
	// input text treats spaces as argument separators
	escaped := strings.ReplaceAll(text, " ", "%s")
	_, err = a.run(deviceArgs(params, "shell", "input", "text", escaped)...)
	return err == nil, err
}

func (a *Automator) pressKey(params map[string]any) (any, error) {
	key, err := strParam(params, "key")
	if err != nil {
		return nil, err
	}
	code, ok := keycodes[strings.ToLower(key)]
	if !ok {
		code = "KEYCODE_" + strings.ToUpper(key)
	}
	_, err = a.run(deviceArgs(params, "shell", "input", "keyevent", code)...)
	return err == nil, err
}

func (a *Automator) screenOn(params map[string]any) (any, error) {
	_, err := a.run(deviceArgs(params, "shell", "input", "keyevent", "KEYCODE_WAKEUP")...)
	return err == nil, err
}

func (a *Automator) screenOff(params map[string]any) (any, error) {
	_, err := a.run(deviceArgs(params, "shell", "input", "keyevent", "KEYCODE_SLEEP")...)
	return err == nil, err
}

func (a *Automator) unlockScreen(params map[string]any) (any, error) {
	if _, err := a.screenOn(params); err != nil {
		return nil, err
	}
	_, err := a.run(deviceArgs(params, "shell", "input", "keyevent", "KEYCODE_MENU")...)
	return err == nil, err
}

func (a *Automator) startApp(params map[string]any) (any, error) {
	pkg, err := strParam(params, "package_name")
	if err != nil {
		return nil, err
	}
	_, err = a.run(deviceArgs(params, "shell", "monkey", "-p", pkg,
		"-c", "android.intent.category.LAUNCHER", "1")...)
	return err == nil, err
}

func (a *Automator) stopApp(params map[string]any) (any, error) {
	pkg, err := strParam(params, "package_name")
	if err != nil {
		return nil, err
	}
	_, err = a.run(deviceArgs(params, "shell", "am", "force-stop", pkg)...)
	return err == nil, err
}

func (a *Automator) installApp(params map[string]any) (any, error) {
	apk, err := strParam(params, "apk_path")
	if err != nil {
		return nil, err
	}
	_, err = a.run(deviceArgs(params, "install", "-r", apk)...)
	return err == nil, err
}

func (a *Automator) uninstallApp(params map[string]any) (any, error) {
	pkg, err := strParam(params, "package_name")
	if err != nil {
		return nil, err
	}
	_, err = a.run(deviceArgs(params, "uninstall", pkg)...)
	return err == nil, err
}

func (a *Automator) clearAppData(params map[string]any) (any, error) {
	pkg, err := strParam(params, "package_name")
	if err != nil {
		return nil, err
	}
	_, err = a.run(deviceArgs(params, "shell", "pm", "clear", pkg)...)
	return err == nil, err
}

func (a *Automator) setClipboard(params map[string]any) (any, error) {
	text, err := strParam(params, "text")
	if err != nil {
		return nil, err
	}
	_, err = a.run(deviceArgs(params, "shell", "cmd", "clipboard", "set-text", text)...)
	return err == nil, err
}

func (a *Automator) pullFile(params map[string]any) (any, error) {
	devicePath, err := strParam(params, "device_path")
	if err != nil {
		return nil, err
	}
	localPath, err := strParam(params, "local_path")
	if err != nil {
		return nil, err
	}
	_, err = a.run(deviceArgs(params, "pull", devicePath, localPath)...)
	return err == nil, err
}

func (a *Automator) pushFile(params map[string]any) (any, error) {
	localPath, err := strParam(params, "local_path")
	if err != nil {
		return nil, err
	}
	devicePath, err := strParam(params, "device_path")
	if err != nil {
		return nil, err
	}
	_, err = a.run(deviceArgs(params, "push", localPath, devicePath)...)
	return err == nil, err
}

func (a *Automator) screenshotTool(params map[string]any) (any, error) {
	filename, err := strParam(params, "filename")
	if err != nil {
		return nil, err
	}
	deviceID, _ := params["device_id"].(string)
	return a.Screenshot(filename, deviceID)
}

func (a *Automator) waitActivity(params map[string]any) (any, error) {
	activity, err := strParam(params, "activity")
	if err != nil {
		return nil, err
	}
	out, err := a.run(deviceArgs(params, "shell", "dumpsys", "activity", "activities")...)
	if err != nil {
		return nil, err
	}
	return bytes.Contains(out, []byte(activity)), nil
}

func (a *Automator) healthcheck(params map[string]any) (any, error) {
	out, err := a.run(deviceArgs(params, "shell", "getprop", "sys.boot_completed")...)
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(string(out)) == "1", nil
}

// keycodes maps friendly key names to Android keyevent codes.
var keycodes = map[string]string{
	"home":        "KEYCODE_HOME",
	"back":        "KEYCODE_BACK",
	"menu":        "KEYCODE_MENU",
	"enter":       "KEYCODE_ENTER",
	"delete":      "KEYCODE_DEL",
	"power":       "KEYCODE_POWER",
	"volume_up":   "KEYCODE_VOLUME_UP",
	"volume_down": "KEYCODE_VOLUME_DOWN",
	"recent":      "KEYCODE_APP_SWITCH",
}

// strParam extracts a required string parameter, wrapping ErrBadParams so
// the dispatcher can attach the declared signature.
func strParam(params map[string]any, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: missing or non-string %q", dispatch.ErrBadParams, key)
	}
	return v, nil
}

// floatParam extracts a required numeric parameter.
func floatParam(params map[string]any, key string) (float64, error) {
	switch v := params[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: missing or non-numeric %q", dispatch.ErrBadParams, key)
	}
}

func itoa(f float64) string {
	return fmt.Sprint(int(f))
}
