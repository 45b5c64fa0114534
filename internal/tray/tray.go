// Package tray provides a system tray interface for the Mudra gesture recognizer.
package tray

import (
	"fmt"
	"math"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/gesture"
)

// DampeningPresets are the smoothing factors offered in the tray menu,
// one per notch of a ten step slider.
var DampeningPresets = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onDampening func(f float64)
	onSettings  func()
	onQuit      func()
	enabled     bool
	dampening   float64
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuLastEvent *systray.MenuItem
	menuPresets   []*systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New(dampening float64) *Tray {
	return &Tray{
		enabled:   true,
		dampening: dampening,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDampening sets the callback called when a smoothing preset is picked.
func (t *Tray) OnDampening(fn func(f float64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDampening = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra Gesture Recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture recognition")
	systray.AddSeparator()

	t.menuLastEvent = systray.AddMenuItem(lastEventTitle(nil), "Last detected gesture")
	t.menuLastEvent.Disable()
	systray.AddSeparator()

	menuSmoothing := systray.AddMenuItem("Smoothing", "Joint smoothing factor")
	t.menuPresets = make([]*systray.MenuItem, len(DampeningPresets))
	for i, f := range DampeningPresets {
		t.menuPresets[i] = menuSmoothing.AddSubMenuItemCheckbox(presetTitle(f), "", presetIndex(t.dampening) == i)
	}
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	t.mu.Unlock()

	for i, item := range t.menuPresets {
		go func(f float64, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.handleDampening(f)
			}
		}(DampeningPresets[i], item)
	}

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleDampening applies a smoothing preset and moves the check mark.
func (t *Tray) handleDampening(f float64) {
	t.mu.Lock()
	t.dampening = f
	selected := presetIndex(f)
	for i, item := range t.menuPresets {
		if i == selected {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	callback := t.onDampening
	t.mu.Unlock()

	if callback != nil {
		callback(f)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastEvent updates the last gesture display in the menu.
func (t *Tray) SetLastEvent(ev gesture.Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastEvent != nil {
		t.menuLastEvent.SetTitle(lastEventTitle(&ev))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Dampening returns the last selected smoothing factor.
func (t *Tray) Dampening() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dampening
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastEventTitle(ev *gesture.Event) string {
	if ev == nil || ev.Gesture == "" {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %s %s", ev.Gesture, ev.Type)
}

func presetTitle(f float64) string {
	switch f {
	case 0:
		return "0.0 (hold)"
	case 1:
		return "1.0 (raw)"
	}
	return fmt.Sprintf("%.1f", f)
}

// presetIndex returns the preset closest to f.
func presetIndex(f float64) int {
	best := 0
	for i, p := range DampeningPresets {
		if math.Abs(p-f) < math.Abs(DampeningPresets[best]-f) {
			best = i
		}
	}
	return best
}
