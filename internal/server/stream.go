package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/skeleton"
)

// streamInterval paces the preview at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// BodySource provides the most recent smoothed body and gesture event.
type BodySource interface {
	LatestBody() (skeleton.Body, bool)
	LastEvent() (gesture.Event, bool)
}

// StreamHandler serves an MJPEG preview of the tracked joints.
type StreamHandler struct {
	source   BodySource
	renderer *render.Renderer
}

// NewStreamHandler creates a new StreamHandler drawing bodies from source.
func NewStreamHandler(source BodySource, renderer *render.Renderer) *StreamHandler {
	return &StreamHandler{source: source, renderer: renderer}
}

// previewLabel describes the last gesture event for the preview overlay.
func previewLabel(source BodySource) string {
	ev, ok := source.LastEvent()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %s", ev.Gesture, ev.Type)
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		body, ok := h.source.LatestBody()
		if !ok {
			continue
		}

		buf, err := h.renderer.EncodeJPEG(body, previewLabel(h.source))
		if err != nil {
			log.Printf("preview: %v", err)
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		if _, err := w.Write(buf); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
