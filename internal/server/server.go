// Package server exposes the assembly engine over HTTP and WebSocket.
//
// A rendering surface connects to /ws and receives a state snapshot after
// every applied instruction. Inbound WebSocket messages are classifier
// intents: each one is mapped to an instruction, round-tripped through the
// protocol codec, and applied to the engine by a single worker goroutine, so
// instruction application is always serialized.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/weave/internal/assembly"
	"github.com/conneroisu/weave/internal/config"
	"github.com/conneroisu/weave/internal/logging"
	"github.com/conneroisu/weave/internal/protocol"
	"github.com/conneroisu/weave/internal/registry"
	"github.com/conneroisu/weave/internal/types"
)

// IntentMapper maps one classifier intent to one assembly instruction. The
// server holds it behind an interface so a rule-tuning reload can swap in a
// freshly constructed mapper.
type IntentMapper interface {
	MapToInstruction(intent types.Intent) types.Instruction
}

// client is one connected rendering surface session.
type client struct {
	conn         *websocket.Conn
	send         chan []byte
	lastActivity time.Time
}

// Server owns the WebSocket hub and the HTTP surface.
type Server struct {
	cfg      *config.Config
	logger   logging.Logger
	registry *registry.ComponentRegistry
	engine   *assembly.Engine

	mapperMutex sync.RWMutex
	mapper      IntentMapper

	// Connection management - protected by clientsMutex
	clients      map[*websocket.Conn]*client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *client
	unregister chan *websocket.Conn
	intents    chan types.Intent

	httpServer   *http.Server
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// New creates a server and subscribes it to engine snapshots.
func New(cfg *config.Config, logger logging.Logger, reg *registry.ComponentRegistry, engine *assembly.Engine, mapper IntentMapper) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:        cfg,
		logger:     logger.WithComponent("server"),
		registry:   reg,
		engine:     engine,
		mapper:     mapper,
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client, 32),
		unregister: make(chan *websocket.Conn, 32),
		intents:    make(chan types.Intent, 64),
		ctx:        ctx,
		cancel:     cancel,
	}

	engine.Subscribe(func(state types.AssemblyState) {
		data, err := protocol.EncodeSnapshot(state)
		if err != nil {
			s.logger.Error(s.ctx, err, "failed to encode snapshot")
			return
		}
		select {
		case s.broadcast <- data:
		case <-s.ctx.Done():
		default:
			s.logger.Warn(s.ctx, nil, "broadcast channel full, dropping snapshot")
		}
	})

	return s
}

// ReplaceMapper swaps the intent mapper. Used by the rule tuning reload.
func (s *Server) ReplaceMapper(mapper IntentMapper) {
	s.mapperMutex.Lock()
	defer s.mapperMutex.Unlock()
	s.mapper = mapper
}

func (s *Server) currentMapper() IntentMapper {
	s.mapperMutex.RLock()
	defer s.mapperMutex.RUnlock()
	return s.mapper
}

// Handler returns the HTTP handler for the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/components", s.handleComponents)
	mux.HandleFunc("/render/", s.handleRender)
	return mux
}

// Start runs the hub, the intent worker, and the HTTP server. It blocks
// until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	go s.runHub()
	go s.runIntentWorker()

	addr := net.JoinHostPort(s.cfg.Server.Host, fmt.Sprintf("%d", s.cfg.Server.Port))
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info(s.ctx, "server listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// SubmitIntent enqueues an intent for the serialized apply worker. It is the
// same path inbound WebSocket intents take.
func (s *Server) SubmitIntent(intent types.Intent) error {
	select {
	case <-s.ctx.Done():
		return fmt.Errorf("server shutting down")
	default:
	}
	select {
	case s.intents <- intent:
		return nil
	case <-s.ctx.Done():
		return fmt.Errorf("server shutting down")
	}
}

// runIntentWorker applies instructions one at a time: map the intent, round
// trip the instruction through the codec, then apply and await completion
// before taking the next intent.
func (s *Server) runIntentWorker() {
	for {
		select {
		case intent := <-s.intents:
			s.processIntent(intent)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) processIntent(intent types.Intent) {
	instruction := s.currentMapper().MapToInstruction(intent)

	data, err := protocol.EncodeInstruction(instruction)
	if err != nil {
		s.logger.Error(s.ctx, err, "failed to encode instruction",
			"intent_type", intent.Type)
		return
	}
	decoded, err := protocol.DecodeInstruction(data)
	if err != nil {
		s.logger.Error(s.ctx, err, "failed to decode instruction",
			"intent_type", intent.Type)
		return
	}

	if err := s.engine.Apply(s.ctx, decoded); err != nil {
		s.logger.Error(s.ctx, err, "instruction apply failed",
			"intent_type", intent.Type, "action", string(decoded.Action))
	}
}

// runHub manages client connections and snapshot broadcasting.
func (s *Server) runHub() {
	for {
		select {
		case c := <-s.register:
			s.registerClient(c)

		case conn := <-s.unregister:
			s.unregisterClient(conn)

		case message := <-s.broadcast:
			s.broadcastToClients(message)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) registerClient(c *client) {
	s.clientsMutex.Lock()
	s.clients[c.conn] = c
	total := len(s.clients)
	s.clientsMutex.Unlock()

	s.logger.Info(s.ctx, "rendering surface connected", "total_clients", total)
}

func (s *Server) unregisterClient(conn *websocket.Conn) {
	s.clientsMutex.Lock()
	c, exists := s.clients[conn]
	if exists {
		delete(s.clients, conn)
		close(c.send)
	}
	total := len(s.clients)
	s.clientsMutex.Unlock()

	if exists {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Info(s.ctx, "rendering surface disconnected", "total_clients", total)
	}
}

func (s *Server) broadcastToClients(message []byte) {
	s.clientsMutex.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMutex.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- message:
		default:
			// Client send buffer is full, unregister it
			go func(conn *websocket.Conn) {
				s.unregister <- conn
			}(c.conn)
		}
	}
}

// ClientCount returns the number of connected rendering surfaces.
func (s *Server) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// Shutdown gracefully stops the hub, all sessions, and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cancel()

		s.clientsMutex.Lock()
		for conn, c := range s.clients {
			close(c.send)
			_ = conn.Close(websocket.StatusNormalClosure, "server shutdown")
		}
		s.clients = make(map[*websocket.Conn]*client)
		s.clientsMutex.Unlock()

		if s.httpServer != nil {
			shutdownErr = s.httpServer.Shutdown(ctx)
		}

		s.logger.Info(context.Background(), "server shut down")
	})

	return shutdownErr
}
