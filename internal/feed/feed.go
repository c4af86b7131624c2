// Package feed streams live dialogue events to the kiosk UI over a
// local websocket, covering the amplitude meter and stage changes.
package feed

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const sendBuffer = 32

// Server accepts websocket subscribers and fans dialogue events out to
// them. A subscriber that cannot keep up is disconnected rather than
// allowed to stall the dialogue.
type Server struct {
	addr     string
	path     string
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	conns    map[*websocket.Conn]chan []byte
	closed   bool
}

// New builds a feed server for the given listen address and path.
func New(addr, path string, logger *slog.Logger) *Server {
	return &Server{
		addr:   addr,
		path:   path,
		logger: logger,
		upgrader: websocket.Upgrader{
			// The feed binds to loopback; the kiosk UI is the only peer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]chan []byte),
	}
}

// Start binds the listen address and begins accepting subscribers.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleSubscribe)

	s.mu.Lock()
	s.listener = listener
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log("feed server stopped", err)
		}
	}()
	return nil
}

// Addr reports the bound listen address, useful when the configured
// address carries port zero.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Close disconnects all subscribers and stops accepting new ones.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	server := s.server
	for conn, ch := range s.conns {
		close(ch)
		delete(s.conns, conn)
	}
	s.mu.Unlock()

	if server != nil {
		_ = server.Close()
	}
}

// PublishLevel broadcasts the current microphone amplitude in [0, 1].
func (s *Server) PublishLevel(value float64) {
	s.publish(map[string]any{"type": "level", "value": value})
}

// PublishStage broadcasts a dialogue stage change.
func (s *Server) PublishStage(stage string) {
	s.publish(map[string]any{"type": "stage", "stage": stage})
}

// PublishText broadcasts recognized text for the current round.
func (s *Server) PublishText(text string) {
	s.publish(map[string]any{"type": "text", "text": text})
}

func (s *Server) publish(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, ch := range s.conns {
		select {
		case ch <- data:
		default:
			// Subscriber fell behind; cut it loose.
			close(ch)
			delete(s.conns, conn)
		}
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log("feed upgrade failed", err)
		return
	}

	ch := make(chan []byte, sendBuffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[conn] = ch
	s.mu.Unlock()

	go s.drainReads(conn)
	s.writeLoop(conn, ch)
}

// writeLoop pushes queued events until the channel closes or a write fails.
func (s *Server) writeLoop(conn *websocket.Conn, ch chan []byte) {
	defer conn.Close()
	for data := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.drop(conn)
			return
		}
	}
}

// drainReads consumes control frames so pings and close messages are
// processed; the feed carries no inbound data.
func (s *Server) drainReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.drop(conn)
			return
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if ch, ok := s.conns[conn]; ok {
		close(ch)
		delete(s.conns, conn)
	}
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) log(message string, err error) {
	if s.logger == nil || err == nil {
		return
	}
	s.logger.Warn(message, "error", err.Error())
}
