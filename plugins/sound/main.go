// Package main provides a sound plugin.
// It plays a clip from the sound library with the platform's command-line player.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
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

// PlayConfig is the per-binding configuration of the play action.
type PlayConfig struct {
	Sound string `json:"sound"`
	// Wait blocks until the clip finishes instead of returning right away.
	Wait bool `json:"wait"`
}

// soundExtensions are tried in order when the configured name has no extension.
var soundExtensions = []string{".wav", ".mp3", ".aiff", ".ogg"}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Action != "play" {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	file, err := handlePlay(req.Config)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("play for %s failed: %v", req.Gesture, err))
		return
	}

	data, _ := json.Marshal(map[string]string{"file": file})
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

// handlePlay resolves the configured clip and starts the player.
func handlePlay(config json.RawMessage) (string, error) {
	var c PlayConfig
	if err := json.Unmarshal(config, &c); err != nil {
		return "", fmt.Errorf("failed to parse config: %w", err)
	}

	file, err := resolveSound(soundDir(), c.Sound)
	if err != nil {
		return "", err
	}

	player, args, err := playerCommand(runtime.GOOS, exec.LookPath)
	if err != nil {
		return "", err
	}

	cmd := exec.Command(player, append(args, file)...)
	if c.Wait {
		if output, err := cmd.CombinedOutput(); err != nil {
			return "", fmt.Errorf("%w: %s", err, string(output))
		}
		return file, nil
	}

	// The clip keeps playing after this process exits
	if err := cmd.Start(); err != nil {
		return "", err
	}
	cmd.Process.Release()
	return file, nil
}

// soundDir returns the sound library directory.
// MUDRA_SOUND_DIR overrides the sounds/ directory next to the plugin.
func soundDir() string {
	if dir := os.Getenv("MUDRA_SOUND_DIR"); dir != "" {
		return dir
	}
	return "sounds"
}

// resolveSound finds the clip named name inside dir.
func resolveSound(dir, name string) (string, error) {
	if name == "" {
		return "", errors.New("sound is required")
	}
	if filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid sound name %q", name)
	}

	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range soundExtensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, c := range candidates {
		path := filepath.Join(dir, c)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", fmt.Errorf("sound %q not found in %s", name, dir)
}

// playerCommand picks the audio player for goos.
func playerCommand(goos string, lookPath func(string) (string, error)) (string, []string, error) {
	if goos == "darwin" {
		return "afplay", nil, nil
	}

	for _, p := range []struct {
		name string
		args []string
	}{
		{"paplay", nil},
		{"aplay", []string{"-q"}},
	} {
		if _, err := lookPath(p.name); err == nil {
			return p.name, p.args, nil
		}
	}

	return "", nil, fmt.Errorf("no audio player found for %s", goos)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}
