package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/testdata"
)

func newSeededStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	return s
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(ev gesture.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Gesture+" "+ev.Type.String())
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// replay runs a recording through a fresh app and returns the gesture events seen.
func replay(t *testing.T, s *store.Store, recording string, dampening float64) []string {
	t.Helper()

	src, err := testdata.Replay(recording)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	a := app.New(app.Config{Store: s, Source: src, Dampening: dampening})
	defer a.Close()

	if err := a.LoadGestures(); err != nil {
		t.Fatalf("LoadGestures() error = %v", err)
	}

	var rec recorder
	a.OnGesture(rec.add)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case <-a.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("replay did not finish")
	}
	return rec.get()
}

func TestE2E_ReplayRecordings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tests := []struct {
		recording string
		want      []string
	}{
		{testdata.Overhead, []string{"left-hand-overhead started", "left-hand-overhead ended"}},
		{testdata.Punch, []string{"right-punch started", "right-punch ended"}},
	}

	for _, tt := range tests {
		t.Run(tt.recording, func(t *testing.T) {
			got := replay(t, newSeededStore(t), tt.recording, 1)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("events = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestE2E_FullDampeningHoldsFirstFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	// The overhead recording drops tracking for a frame mid-gesture
	for _, recording := range []string{testdata.Overhead, testdata.Punch} {
		t.Run(recording, func(t *testing.T) {
			if got := replay(t, newSeededStore(t), recording, 0); len(got) != 0 {
				t.Errorf("a held skeleton must not trigger gestures, got %v", got)
			}
		})
	}
}

func TestE2E_RecordingFrames(t *testing.T) {
	frames, err := testdata.LoadFrames(testdata.Overhead)
	if err != nil {
		t.Fatalf("LoadFrames() error = %v", err)
	}
	// One frame carries no tracked skeleton
	if len(frames) != 17 {
		t.Errorf("len(frames) = %d, want 17", len(frames))
	}
	for i := 1; i < len(frames); i++ {
		if !frames[i].Timestamp.After(frames[i-1].Timestamp) {
			t.Fatalf("frame %d is not after frame %d", i, i-1)
		}
	}
}

func TestE2E_ReconfigureOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s := newSeededStore(t)

	a := app.New(app.Config{Store: s, Dampening: 1})
	defer a.Close()
	if err := a.LoadGestures(); err != nil {
		t.Fatalf("LoadGestures() error = %v", err)
	}

	ts := httptest.NewServer(server.New(server.Config{Store: s, Engine: a}))
	defer ts.Close()
	client := ts.Client()

	g, err := s.Gestures().GetByName("right-punch")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}

	// Raise the punch threshold past anything the recording reaches
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/gestures/"+g.ID, bytes.NewBufferString(`{"threshold": 2.0}`))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	frames, err := testdata.LoadFrames(testdata.Punch)
	if err != nil {
		t.Fatalf("LoadFrames() error = %v", err)
	}
	for _, f := range frames {
		res, err := a.ProcessFrame(f)
		if err != nil {
			t.Fatalf("ProcessFrame() error = %v", err)
		}
		if len(res.Events) != 0 {
			t.Fatalf("reloaded threshold ignored: %+v", res.Events)
		}
	}

	resp, err = client.Get(ts.URL + "/api/settings/dampening")
	if err != nil {
		t.Fatalf("GET dampening error = %v", err)
	}
	var body struct {
		Dampening float64 `json:"dampening"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if body.Dampening != 1 {
		t.Errorf("dampening = %v, want 1", body.Dampening)
	}
}

func TestE2E_EventsOverWebSocket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s := newSeededStore(t)
	src, err := testdata.Replay(testdata.Punch)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	a := app.New(app.Config{Store: s, Source: src, Dampening: 1})
	defer a.Close()
	if err := a.LoadGestures(); err != nil {
		t.Fatalf("LoadGestures() error = %v", err)
	}

	hub := server.NewEventHub()
	defer hub.Close()
	a.OnFrame(func(r app.FrameResult) {
		hub.Publish(server.NewFrameMessage(r.Timestamp, r.Body, r.Events))
	})

	ts := httptest.NewServer(server.New(server.Config{Store: s, Engine: a, Hub: hub}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var seen []string
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for len(seen) < 2 {
		var msg server.FrameMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v (seen %v)", err, seen)
		}
		for _, ev := range msg.Events {
			seen = append(seen, ev.Gesture+" "+ev.Type.String())
		}
	}

	want := "right-punch started,right-punch ended"
	if strings.Join(seen, ",") != want {
		t.Errorf("events = %v, want %s", seen, want)
	}
}
