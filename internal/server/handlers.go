package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/weave/internal/protocol"
)

// isAllowedOrigin validates a WebSocket connection origin against the
// configured allow list. An empty list restricts connections to local
// development origins.
func (s *Server) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	allowed := s.cfg.Server.AllowedOrigins
	if len(allowed) == 0 {
		return strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
	}
	for _, candidate := range allowed {
		if candidate == "*" || candidate == origin {
			return true
		}
	}
	return false
}

// handleWebSocket upgrades a rendering surface session and wires its read
// and write pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); !s.isAllowedOrigin(origin) {
		s.logger.Warn(r.Context(), nil, "rejected connection with invalid origin", "origin", origin)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // validated above
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	c := &client{
		conn:         conn,
		send:         make(chan []byte, 256),
		lastActivity: time.Now(),
	}

	select {
	case s.register <- c:
	case <-s.ctx.Done():
		_ = conn.Close(websocket.StatusServiceRestart, "server shutting down")
		return
	}

	// Seed the new session with the current state
	if data, err := protocol.EncodeSnapshot(s.engine.Snapshot()); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}

	go s.writeToClient(c)
	go s.readFromClient(c)
}

// readFromClient treats every inbound message as a classifier intent and
// enqueues it for the serialized apply worker. Malformed intents are logged
// and dropped without closing the session.
func (s *Server) readFromClient(c *client) {
	defer func() {
		s.unregister <- c.conn
	}()

	for {
		ctx, cancel := context.WithTimeout(s.ctx, 60*time.Second)
		_, message, err := c.conn.Read(ctx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				s.logger.Debug(s.ctx, "websocket read ended", "error", err.Error())
			}
			return
		}

		c.lastActivity = time.Now()

		intent, err := protocol.DecodeIntent(message)
		if err != nil {
			s.logger.Warn(s.ctx, err, "dropping malformed intent message")
			continue
		}
		if err := s.SubmitIntent(intent); err != nil {
			return
		}
	}
}

// writeToClient delivers broadcast snapshots and keepalive pings.
func (s *Server) writeToClient(c *client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":            "ok",
		"active_components": s.engine.ActiveCount(),
		"layout":            s.engine.LayoutKey(),
	})
}

// componentListing is one entry in the /components response.
type componentListing struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Areas       []string `json:"areas,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (s *Server) handleComponents(w http.ResponseWriter, _ *http.Request) {
	names := s.registry.ListNames()
	listings := make([]componentListing, 0, len(names))
	for _, name := range names {
		listing := componentListing{Name: name}
		if metadata, ok := s.registry.GetMetadata(name); ok {
			listing.Description = metadata.Description
			listing.Areas = metadata.Areas
			listing.Tags = metadata.Tags
		}
		listings = append(listings, listing)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(listings)
}

// handleRender renders a single registered component with props taken from
// query parameters. Useful for previewing capabilities in isolation.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/render/")
	if name == "" {
		http.Error(w, "component name required", http.StatusBadRequest)
		return
	}

	capability, ok := s.registry.Get(name)
	if !ok {
		http.Error(w, "component not registered", http.StatusNotFound)
		return
	}

	props := make(map[string]interface{})
	for key, values := range r.URL.Query() {
		if len(values) == 1 {
			props[key] = values[0]
		} else {
			props[key] = values
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := capability(props).Render(r.Context(), w); err != nil {
		s.logger.Error(r.Context(), err, "component render failed", "component", name)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}
