// Package rpc serves the real-time event stream over WebSocket. Clients
// subscribe to event streams by type name and receive every matching event
// published after their subscription.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/enerledger/gocertd/internal/events"
)

const (
	writeTimeout   = 10 * time.Second
	pongTimeout    = 60 * time.Second
	pingInterval   = 54 * time.Second
	maxMessageSize = 64 * 1024
)

// Command is a client request on the WebSocket connection.
type Command struct {
	Command string   `json:"command"`
	Streams []string `json:"streams,omitempty"`
	ID      any      `json:"id,omitempty"`
}

// CommandResponse acknowledges a client command.
type CommandResponse struct {
	Type   string `json:"type"`
	ID     any    `json:"id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// WebSocketServer upgrades connections and streams ledger events to them.
type WebSocketServer struct {
	addr      string
	publisher *events.Publisher
	upgrader  websocket.Upgrader
}

// NewWebSocketServer creates a server streaming from the given publisher.
func NewWebSocketServer(addr string, publisher *events.Publisher) *WebSocketServer {
	return &WebSocketServer{
		addr:      addr,
		publisher: publisher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles a WebSocket upgrade request.
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	eventCh, cancelSub := ws.publisher.Subscribe()
	ctx, cancel := context.WithCancel(r.Context())

	c := &connection{
		conn:      conn,
		streams:   make(map[string]bool),
		responses: make(chan CommandResponse, 16),
	}

	go func() {
		defer cancel()
		defer cancelSub()
		c.readLoop(ctx)
	}()
	go func() {
		defer conn.Close()
		c.writeLoop(ctx, eventCh)
	}()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (ws *WebSocketServer) Run(ctx context.Context) error {
	srv := &http.Server{Addr: ws.addr, Handler: ws}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("websocket server listening on %s", ws.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// connection is one client. streams holds the subscribed event type names; an
// empty set means the client receives everything. All writes go through the
// write loop; gorilla connections support one concurrent writer only.
type connection struct {
	conn      *websocket.Conn
	responses chan CommandResponse

	mu      sync.RWMutex
	streams map[string]bool
}

func (c *connection) wants(eventType string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.streams) == 0 || c.streams[eventType]
}

func (c *connection) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.sendResponse(CommandResponse{Type: "response", Status: "error", Error: "invalid JSON"})
			continue
		}

		switch cmd.Command {
		case "subscribe":
			c.mu.Lock()
			for _, stream := range cmd.Streams {
				c.streams[stream] = true
			}
			c.mu.Unlock()
			c.sendResponse(CommandResponse{Type: "response", ID: cmd.ID, Status: "success"})
		case "unsubscribe":
			c.mu.Lock()
			if len(cmd.Streams) == 0 {
				c.streams = make(map[string]bool)
			}
			for _, stream := range cmd.Streams {
				delete(c.streams, stream)
			}
			c.mu.Unlock()
			c.sendResponse(CommandResponse{Type: "response", ID: cmd.ID, Status: "success"})
		default:
			c.sendResponse(CommandResponse{Type: "response", ID: cmd.ID, Status: "error", Error: "unknown command"})
		}
	}
}

func (c *connection) writeLoop(ctx context.Context, eventCh <-chan events.Event) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case resp := <-c.responses:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(resp); err != nil {
				log.Printf("websocket send: %v", err)
				return
			}
		case evt, ok := <-eventCh:
			if !ok {
				return
			}
			if !c.wants(evt.Type) {
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(evt); err != nil {
				log.Printf("websocket send: %v", err)
				return
			}
		}
	}
}

func (c *connection) sendResponse(resp CommandResponse) {
	select {
	case c.responses <- resp:
	default:
	}
}
