package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cutroom/cutroom-agent/internal/playback"
)

// Event stream message types. Playback transport and each output channel
// get distinct types so the client never has to disambiguate a zero value.
const (
	EventPlay          = "play"
	EventPause         = "pause"
	EventVisual        = "visual"
	EventOverlay       = "overlay"
	EventCaption       = "caption"
	EventNarrationBind = "narration-bind"
	EventNarrationSeek = "narration-seek"
	EventNarrationStop = "narration-stop"
	EventMusicBind     = "music-bind"
	EventMusicStop     = "music-stop"
)

// Event is one device command on the wire. An absent ref means "clear the
// slot"; offset is a pointer so a bind at offset zero still serializes.
type Event struct {
	Type   string   `json:"type"`
	Ref    string   `json:"ref,omitempty"`
	Offset *float64 `json:"offset,omitempty"`
	Lines  []string `json:"lines,omitempty"`
}

const (
	eventWriteWait  = 10 * time.Second
	eventPongWait   = 60 * time.Second
	eventPingPeriod = (eventPongWait * 9) / 10
	eventSendBuffer = 64
)

var eventUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || isAllowedOrigin(origin)
	},
}

// EventHub fans device commands out to every connected UI over WebSocket.
// It is the session's playback output: the binder calls it from inside the
// tick with the session lock held, so broadcasts never block. A client
// whose send buffer is full loses the message and resyncs from /status
// and /session/frame, which it does on reconnect anyway.
type EventHub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*eventClient]struct{}
}

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewEventHub(logger *slog.Logger) *EventHub {
	return &EventHub{
		logger:  logger,
		clients: make(map[*eventClient]struct{}),
	}
}

var _ playback.Output = (*EventHub)(nil)

func (h *EventHub) SetPlaying(playing bool) {
	if playing {
		h.broadcast(Event{Type: EventPlay})
		return
	}
	h.broadcast(Event{Type: EventPause})
}

func (h *EventHub) SetVisual(ref string) {
	h.broadcast(Event{Type: EventVisual, Ref: ref})
}

func (h *EventHub) SetOverlay(ref string) {
	h.broadcast(Event{Type: EventOverlay, Ref: ref})
}

func (h *EventHub) SetCaption(lines []string) {
	h.broadcast(Event{Type: EventCaption, Lines: lines})
}

func (h *EventHub) BindNarration(ref string, offset float64) {
	h.broadcast(Event{Type: EventNarrationBind, Ref: ref, Offset: &offset})
}

func (h *EventHub) SeekNarration(offset float64) {
	h.broadcast(Event{Type: EventNarrationSeek, Offset: &offset})
}

func (h *EventHub) StopNarration() {
	h.broadcast(Event{Type: EventNarrationStop})
}

func (h *EventHub) BindMusic(ref string, offset float64) {
	h.broadcast(Event{Type: EventMusicBind, Ref: ref, Offset: &offset})
}

func (h *EventHub) StopMusic() {
	h.broadcast(Event{Type: EventMusicStop})
}

func (h *EventHub) broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("event client lagging, dropping message", "type", ev.Type)
		}
	}
}

// ClientCount reports how many UIs are connected.
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request and streams events until the client goes away.
func (h *EventHub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := eventUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &eventClient{conn: conn, send: make(chan []byte, eventSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("event client connected", "clients", count)

	go h.writePump(c)
	go h.readPump(c)
}

// Close tears down every client connection. Shutdown of the HTTP server
// does not touch hijacked connections, so the hub has to.
func (h *EventHub) Close() {
	h.mu.Lock()
	clients := make([]*eventClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func (h *EventHub) writePump(c *eventClient) {
	ticker := time.NewTicker(eventPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the stream is one-way. It exists to
// notice disconnects and answer pings.
func (h *EventHub) readPump(c *eventClient) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(eventPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(eventPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *EventHub) unregister(c *eventClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	c.conn.Close()
	h.logger.Info("event client disconnected", "clients", count)
}
