package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/skeleton"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// hubBuffer is the number of frames queued for broadcast before new ones are dropped.
const hubBuffer = 16

const writeWait = time.Second

// FrameMessage is the JSON document sent to event subscribers for each frame.
type FrameMessage struct {
	Timestamp int64           `json:"timestamp"`
	Body      skeleton.Body   `json:"body"`
	Events    []gesture.Event `json:"events"`
}

// NewFrameMessage builds the broadcast form of a processed frame.
func NewFrameMessage(at time.Time, body skeleton.Body, events []gesture.Event) FrameMessage {
	if events == nil {
		events = []gesture.Event{}
	}
	return FrameMessage{
		Timestamp: at.UnixMilli(),
		Body:      body,
		Events:    events,
	}
}

// EventHub broadcasts processed frames to WebSocket clients.
type EventHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex

	queue     chan FrameMessage
	done      chan struct{}
	closeOnce sync.Once
}

// NewEventHub creates an EventHub and starts its broadcast goroutine.
func NewEventHub() *EventHub {
	h := &EventHub{
		clients: make(map[*websocket.Conn]bool),
		queue:   make(chan FrameMessage, hubBuffer),
		done:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Publish queues msg for all clients. It never blocks the frame loop:
// frames are dropped while the queue is full or after Close.
func (h *EventHub) Publish(msg FrameMessage) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.queue <- msg:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops broadcasting and disconnects all clients.
func (h *EventHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	})
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	select {
	case <-h.done:
		return
	default:
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer h.remove(conn)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *EventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// broadcast sends queued frames to all connected clients.
func (h *EventHub) broadcast() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.queue:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Failed to encode frame message: %v", err)
				continue
			}

			// Writes happen only on this goroutine, so conns need no write lock
			h.mu.RLock()
			var failed []*websocket.Conn
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					failed = append(failed, conn)
				}
			}
			h.mu.RUnlock()

			for _, conn := range failed {
				conn.Close()
				h.remove(conn)
			}
		}
	}
}
