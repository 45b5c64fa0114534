package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	fmt.Println("Mudra - Skeleton Gesture Recognition")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	seeded, err := st.SeedDefaults()
	if err != nil {
		log.Fatalf("Failed to seed default gestures: %v", err)
	}
	if seeded {
		log.Println("Installed default gestures")
	}

	source, err := openSource(cfg)
	if err != nil {
		log.Fatalf("Failed to configure sensor: %v", err)
	}

	a := app.New(app.Config{
		Store:         st,
		Source:        source,
		PluginDir:     cfg.PluginDir,
		ActionTimeout: cfg.ActionTimeout,
		ActionQueue:   cfg.ActionQueue,
		Dampening:     cfg.Dampening,
	})
	defer a.Close()

	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	if err := a.LoadGestures(); err != nil {
		log.Fatalf("Failed to load gestures: %v", err)
	}

	hub := server.NewEventHub()
	defer hub.Close()
	a.OnFrame(func(r app.FrameResult) {
		hub.Publish(server.NewFrameMessage(r.Timestamp, r.Body, r.Events))
	})

	if cfg.Addr != "" {
		if cfg.StaticDir != "" {
			fmt.Printf("Serving static files from: %s\n", cfg.StaticDir)
		}

		srv := server.New(server.Config{
			StaticDir: cfg.StaticDir,
			Store:     st,
			Engine:    a,
			Hub:       hub,
			Renderer:  render.New(cfg.PreviewWidth, cfg.PreviewHeight),
		})

		go func() {
			fmt.Printf("Starting server on %s\n", cfg.Addr)
			if err := srv.ListenAndServe(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start frame loop: %v", err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Headless {
		select {
		case <-signals:
		case <-a.Done():
		}
		log.Println("Shutting down")
		return
	}

	runTray(cfg, a, signals)
	log.Println("Shutting down")
}

// openSource picks the replay file when one is configured, else the live bridge.
func openSource(cfg config.Config) (sensor.Source, error) {
	if cfg.ReplayFile != "" {
		log.Printf("Replaying %s", cfg.ReplayFile)
		src, err := sensor.OpenReplayFile(cfg.ReplayFile, cfg.ReplayPaced)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	src, err := sensor.NewBridgeSource(sensor.BridgeConfig{
		Command: cfg.BridgeCommand,
		Args:    cfg.BridgeArgs,
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}

// runTray blocks in the system tray until Quit is picked or a signal arrives.
func runTray(cfg config.Config, a *app.App, signals <-chan os.Signal) {
	t := tray.New(a.Dampening())

	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		log.Printf("Recognition enabled: %v", enabled)
	})
	t.OnDampening(func(f float64) {
		if err := a.SetDampening(f); err != nil {
			log.Printf("Failed to set dampening: %v", err)
		}
	})
	t.OnSettings(func() {
		if cfg.Addr == "" {
			return
		}
		if err := openBrowser(settingsURL(cfg.Addr)); err != nil {
			log.Printf("Failed to open settings: %v", err)
		}
	})
	a.OnGesture(t.SetLastEvent)

	go func() {
		<-signals
		t.Quit()
	}()

	t.Run()
}

// settingsURL turns a listen address into a browsable local URL.
func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
