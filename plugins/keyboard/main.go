// Package main provides a keyboard plugin.
// It sends a keystroke when a gesture fires: AppleScript on macOS, xdotool elsewhere.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action      string          `json:"action"`
	Gesture     string          `json:"gesture"`
	Event       string          `json:"event"`
	TimestampMs int64           `json:"timestamp_ms"`
	Config      json.RawMessage `json:"config"`
	Params      json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeystrokeConfig names the key to press and its modifiers.
type KeystrokeConfig struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// appleModifiers maps modifier names to AppleScript.
var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// xdotoolModifiers maps modifier names to xdotool key names.
var xdotoolModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	switch req.Action {
	case "keystroke", "shortcut":
		ks, err := parseKeystroke(req.Config, req.Params)
		if err == nil {
			err = sendKeystroke(runtime.GOOS, ks)
		}
		if err != nil {
			writeResponse(fmt.Errorf("action %s failed: %w", req.Action, err))
			return
		}
	default:
		writeResponse(fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	writeResponse(nil)
}

// parseKeystroke reads the keystroke from the binding config.
// Params, when present, override it.
func parseKeystroke(config, params json.RawMessage) (KeystrokeConfig, error) {
	var ks KeystrokeConfig
	for _, raw := range []json.RawMessage{config, params} {
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, &ks); err != nil {
			return ks, fmt.Errorf("failed to parse keystroke: %w", err)
		}
	}

	if ks.Key == "" {
		return ks, errors.New("key is required")
	}
	return ks, nil
}

func sendKeystroke(goos string, ks KeystrokeConfig) error {
	var cmd *exec.Cmd
	if goos == "darwin" {
		cmd = exec.Command("osascript", "-e", buildAppleScript(ks))
	} else {
		cmd = exec.Command("xdotool", "key", buildXdotoolChord(ks))
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// buildAppleScript generates an AppleScript keystroke for ks.
func buildAppleScript(ks KeystrokeConfig) string {
	var mods []string
	for _, m := range ks.Modifiers {
		if am, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}

	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, ks.Key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, ks.Key, strings.Join(mods, ", "))
}

// buildXdotoolChord renders ks as an xdotool chord such as "ctrl+shift+n".
func buildXdotoolChord(ks KeystrokeConfig) string {
	parts := make([]string, 0, len(ks.Modifiers)+1)
	for _, m := range ks.Modifiers {
		if xm, ok := xdotoolModifiers[strings.ToLower(m)]; ok {
			parts = append(parts, xm)
		}
	}
	return strings.Join(append(parts, ks.Key), "+")
}

// writeResponse writes a success response, or an error response when err is set.
func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
