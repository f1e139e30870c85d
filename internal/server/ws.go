package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/detector"
)

const (
	// sendBuffer is the number of frames queued per client before new
	// frames are dropped for it.
	sendBuffer = 8
	writeWait  = 2 * time.Second
	// maxMessageSize bounds inbound messages; a two-hand landmark message
	// is well under this.
	maxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message types on the viewer socket.
const (
	MsgFrame     = "frame"
	MsgLandmarks = "landmarks"
	MsgCommand   = "command"
	MsgError     = "error"
)

// Pipeline is what the hub needs from the running app.
type Pipeline interface {
	Source() string
	SubmitLandmarks(hands []detector.HandLandmarks)
	Execute(ctx context.Context, cmd app.Command) (app.State, error)
}

type frameMessage struct {
	Type string `json:"type"`
	app.State
}

type inboundMessage struct {
	Type    string               `json:"type"`
	Hands   [][]detector.Point3D `json:"hands"`
	Command string               `json:"command"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

var errWrongSource = errors.New("landmarks are only accepted with the remote source")

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts published states to every connected viewer and accepts
// landmarks and commands from them. It implements app.Sink.
type Hub struct {
	pipeline Pipeline
	clients  map[*client]struct{}
	mu       sync.RWMutex
}

// NewHub creates a hub for pipeline.
func NewHub(p Pipeline) *Hub {
	return &Hub{
		pipeline: p,
		clients:  make(map[*client]struct{}),
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Render queues s for every client. Clients that are behind skip the frame.
func (h *Hub) Render(s app.State) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(frameMessage{Type: MsgFrame, State: s})
	if err != nil {
		log.Printf("Failed to encode frame: %v", err)
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}

// ServeHTTP upgrades the request and serves one viewer until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(c)
	}()

	h.readPump(r.Context(), c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
	<-done
	conn.Close()
}

func (h *Hub) writePump(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// Drain so Render never blocks on a dead client.
			for range c.send {
			}
			return
		}
	}
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if err := h.handle(ctx, data); err != nil {
			reply, _ := json.Marshal(errorMessage{Type: MsgError, Error: err.Error()})
			c.send <- reply
		}
	}
}

// handle applies one inbound message.
func (h *Hub) handle(ctx context.Context, data []byte) error {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	switch msg.Type {
	case MsgLandmarks:
		if h.pipeline.Source() != app.SourceRemote {
			return errWrongSource
		}
		hands, err := decodeHands(msg.Hands)
		if err != nil {
			return err
		}
		h.pipeline.SubmitLandmarks(hands)
		return nil

	case MsgCommand:
		cmd, err := app.ParseCommand(msg.Command)
		if err != nil {
			return err
		}
		_, err = h.pipeline.Execute(ctx, cmd)
		return err

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func decodeHands(raw [][]detector.Point3D) ([]detector.HandLandmarks, error) {
	hands := make([]detector.HandLandmarks, 0, len(raw))
	for i, points := range raw {
		if len(points) != detector.NumLandmarks {
			return nil, fmt.Errorf("hand %d: got %d landmarks, want %d", i, len(points), detector.NumLandmarks)
		}
		hands = append(hands, detector.FromPoints(points, "", 1))
	}
	return hands, nil
}
