// Package app wires the sensor, gesture engine, store and action plugins together.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
)

// ErrInvalidDampening is returned for dampening values outside [0, 1].
var ErrInvalidDampening = errors.New("dampening must be within [0, 1]")

// Config holds configuration options for the application.
type Config struct {
	Store  *store.Store
	Source sensor.Source

	PluginDir     string
	ActionTimeout time.Duration
	ActionQueue   int

	// Dampening is used when the store holds no saved value.
	Dampening float64
}

// FrameResult is published for every processed frame.
type FrameResult struct {
	Timestamp time.Time
	Body      skeleton.Body
	Events    []gesture.Event
}

// App runs the frame loop and turns gesture transitions into plugin actions.
type App struct {
	config     Config
	source     sensor.Source
	engine     *gesture.Engine
	pluginMgr  *plugin.Manager
	dispatcher *plugin.Dispatcher

	// engineMu serialises the frame loop against gesture reloads
	engineMu sync.Mutex

	mu           sync.RWMutex
	enabled      bool
	stopCh       chan struct{}
	done         chan struct{}
	latest       skeleton.Body
	hasBody      bool
	lastEvent    gesture.Event
	hasEvent     bool
	frameHooks   []func(FrameResult)
	gestureHooks []func(gesture.Event)
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	dampening := config.Dampening
	if config.Store != nil {
		saved, err := config.Store.Settings().GetFloat(store.SettingDampening)
		switch {
		case err == nil && saved >= 0 && saved <= 1:
			dampening = saved
		case err != nil && !errors.Is(err, store.ErrNotFound):
			log.Printf("Failed to load saved dampening: %v", err)
		}
	}

	mgr := plugin.NewManager(config.PluginDir)

	return &App{
		config:     config,
		source:     config.Source,
		engine:     gesture.NewEngine(gesture.EngineConfig{Dampening: dampening}),
		pluginMgr:  mgr,
		dispatcher: plugin.NewDispatcher(mgr, plugin.NewExecutor(config.ActionTimeout), config.ActionQueue),
		enabled:    true,
	}
}

// SetEnabled enables or disables gesture detection.
// Frames keep being read while disabled so the sensor stream does not back up.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDampening changes the smoothing factor and saves it.
func (a *App) SetDampening(f float64) error {
	if f < 0 || f > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidDampening, f)
	}

	a.engine.SetDampening(f)

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetFloat(store.SettingDampening, f); err != nil {
			return fmt.Errorf("save dampening: %w", err)
		}
	}
	return nil
}

// Dampening returns the current smoothing factor.
func (a *App) Dampening() float64 {
	return a.engine.Dampening()
}

// LatestBody returns the most recent smoothed body, if any frame was processed.
func (a *App) LatestBody() (skeleton.Body, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest, a.hasBody
}

// LastEvent returns the most recent gesture transition.
func (a *App) LastEvent() (gesture.Event, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastEvent, a.hasEvent
}

// OnFrame registers fn to receive every processed frame.
// fn runs on the frame goroutine and must not block.
func (a *App) OnFrame(fn func(FrameResult)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frameHooks = append(a.frameHooks, fn)
}

// OnGesture registers fn to receive every gesture transition.
// fn runs on the frame goroutine and must not block.
func (a *App) OnGesture(fn func(gesture.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gestureHooks = append(a.gestureHooks, fn)
}

// binding is an action resolved for one gesture transition.
type binding struct {
	plugin string
	action string
	config []byte
}

// LoadGestures rebuilds the gesture set from the store and swaps it into the engine.
// Without a store the stock gestures are used with no actions.
func (a *App) LoadGestures() error {
	defs, bindings, err := a.loadDefinitions()
	if err != nil {
		return err
	}

	var gestures []gesture.Gesture
	for _, d := range defs {
		if !d.Enabled {
			continue
		}

		g, err := gesture.Build(d)
		if err != nil {
			log.Printf("Skipping gesture %s: %v", d.Name, err)
			continue
		}

		byTrigger := bindings[d.ID]
		g.OnStarted(a.actionListener(byTrigger[gesture.Started]))
		g.OnEnded(a.actionListener(byTrigger[gesture.Ended]))
		gestures = append(gestures, g)
	}

	a.engineMu.Lock()
	a.engine.SetGestures(gestures)
	a.engineMu.Unlock()

	log.Printf("Loaded %d gestures", len(gestures))
	return nil
}

func (a *App) loadDefinitions() ([]gesture.Definition, map[string]map[gesture.EventType][]binding, error) {
	if a.config.Store == nil {
		return gesture.DefaultDefinitions(), nil, nil
	}

	rows, err := a.config.Store.Gestures().List()
	if err != nil {
		return nil, nil, fmt.Errorf("list gestures: %w", err)
	}

	defs := make([]gesture.Definition, 0, len(rows))
	for _, row := range rows {
		d, err := row.Definition()
		if err != nil {
			log.Printf("Skipping stored gesture: %v", err)
			continue
		}
		defs = append(defs, d)
	}

	actions, err := a.config.Store.Actions().List()
	if err != nil {
		return nil, nil, fmt.Errorf("list actions: %w", err)
	}

	bindings := make(map[string]map[gesture.EventType][]binding)
	for _, act := range actions {
		if !act.Enabled {
			continue
		}
		if bindings[act.GestureID] == nil {
			bindings[act.GestureID] = make(map[gesture.EventType][]binding)
		}
		bindings[act.GestureID][act.Trigger] = append(bindings[act.GestureID][act.Trigger], binding{
			plugin: act.PluginName,
			action: act.ActionName,
			config: act.Config,
		})
	}

	return defs, bindings, nil
}

// actionListener queues the bound actions for a transition.
// Dropped jobs are reported as listener errors.
func (a *App) actionListener(bound []binding) gesture.Listener {
	return func(ev gesture.Event) error {
		var errs []error
		for _, b := range bound {
			job := plugin.Job{
				Plugin: b.plugin,
				Request: plugin.Request{
					Action:      b.action,
					Gesture:     ev.Gesture,
					Event:       ev.Type.String(),
					TimestampMs: ev.At.UnixMilli(),
					Config:      b.config,
				},
			}
			if !a.dispatcher.Dispatch(job) {
				errs = append(errs, fmt.Errorf("action %s/%s for %s dropped", b.plugin, b.action, ev.Gesture))
			}
		}
		return errors.Join(errs...)
	}
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Dispatcher returns the action dispatcher.
func (a *App) Dispatcher() *plugin.Dispatcher {
	return a.dispatcher
}

// Start opens the source and begins the frame loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if a.source == nil {
		return errors.New("no sensor source configured")
	}

	if err := a.source.Open(); err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Println("Frame loop started")
	return nil
}

// Done is closed when the running frame loop exits, e.g. at the end of a replay.
// It returns nil if the loop was never started.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// stopTimeout bounds how long Stop waits for the frame loop.
const stopTimeout = 2 * time.Second

// Stop halts the frame loop and closes the source.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)

	// Closing the source unblocks a pending ReadFrame
	if err := a.source.Close(); err != nil {
		log.Printf("Error closing sensor: %v", err)
	}

	select {
	case <-done:
	case <-time.After(stopTimeout):
		log.Println("Frame loop did not stop in time")
	}

	log.Println("Frame loop stopped")
}

// Close stops the frame loop and waits for queued actions to finish.
func (a *App) Close() {
	a.Stop()
	a.dispatcher.Close()
}
