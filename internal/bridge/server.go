package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/ephemeris/internal/discovery"
	"github.com/muurk/ephemeris/internal/logging"
)

const (
	// Time allowed to write an acknowledgement
	writeWait = 10 * time.Second

	// Time a connection may stay idle between frames
	readWait = 60 * time.Second

	// Maximum payload frame size
	maxMessageSize = 64 * 1024
)

// Config holds the bridge configuration
type Config struct {
	Host string
	Port int
	Path string // WebSocket path (default /settings)

	CertPath string // Optional TLS certificate
	KeyPath  string // Optional TLS key

	// Advertise registers the bridge over mDNS under Name
	Advertise bool
	Name      string
}

// Server is the development bridge
type Server struct {
	config   *Config
	handler  Handler
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener
	mdns       *zeroconf.Server

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*websocket.Conn
	received    int
}

// New creates a bridge that passes payloads to handler
func New(config *Config, handler Handler) *Server {
	if config.Path == "" {
		config.Path = discovery.DefaultPath
	}
	if config.Name == "" {
		config.Name = "ephemeris-bridge"
	}

	s := &Server{
		config:      config,
		handler:     handler,
		activeConns: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// Phones connect from arbitrary origins on the LAN
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.Path, s.handleWebSocket)
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler serving the WebSocket endpoint
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Listen binds the listening socket. Port 0 picks a free port.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL returns the WebSocket URL clients should dial
func (s *Server) URL() string {
	scheme := "ws"
	if s.config.CertPath != "" {
		scheme = "wss"
	}
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	return fmt.Sprintf("%s://%s%s", scheme, addr.String(), s.config.Path)
}

// Serve accepts connections until ctx is done, then shuts down
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	logging.Info("Starting ephemeris bridge",
		zap.String("url", s.URL()),
		zap.Bool("advertise", s.config.Advertise),
	)

	if s.config.Advertise {
		port := s.listener.Addr().(*net.TCPAddr).Port
		mdns, err := discovery.Advertise(s.config.Name, port, s.config.Path, []string{"cbor", "json"})
		if err != nil {
			_ = s.listener.Close()
			return err
		}
		s.mdns = mdns
		logging.Info("Advertising bridge over mDNS",
			zap.String("name", s.config.Name),
			zap.String("service", discovery.ServiceType),
		)
	}

	errChan := make(chan error, 1)
	go func() {
		var err error
		if s.config.CertPath != "" && s.config.KeyPath != "" {
			err = s.httpServer.ServeTLS(s.listener, s.config.CertPath, s.config.KeyPath)
		} else {
			err = s.httpServer.Serve(s.listener)
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errChan <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Start runs the bridge and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	s.wg.Add(1)
	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		s.wg.Done()
		logging.Debug("Bridge connection closed", zap.String("remote_addr", remoteAddr))
	}()

	logging.Info("Bridge connection accepted",
		zap.String("remote_addr", remoteAddr),
		zap.String("encoding", r.Header.Get("X-Ephemeris-Encoding")),
	)
	conn.SetReadLimit(maxMessageSize)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
			return
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("Bridge read ended",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}
		logging.LogWebSocketMessage(logging.GetLogger(), remoteAddr, "received", msgType, data)

		p, ack := HandleMessage(s.handler, remoteAddr, msgType, data)
		if p != nil && ack.OK() {
			s.mu.Lock()
			s.received++
			s.mu.Unlock()
			logging.Info("Payload received",
				zap.String("remote_addr", remoteAddr),
				zap.String("payload", p.FormatCompact()),
			)
		} else {
			logging.Warn("Payload rejected",
				zap.String("remote_addr", remoteAddr),
				zap.String("reason", ack.Message),
			)
		}

		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, ack.Marshal()); err != nil {
			logging.Warn("Failed to send acknowledgement",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
	}
}

// Shutdown stops advertising, closes the listener and active
// connections, and waits for handlers to finish
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	if s.mdns != nil {
		s.mdns.Shutdown()
		s.mdns = nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Error("Error stopping HTTP server", zap.Error(err))
	}

	// Hijacked WebSocket connections are not closed by http.Server
	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Info("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return nil
}

// GetActiveConnections returns the number of active connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

// Received returns the number of payloads accepted
func (s *Server) Received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received
}
