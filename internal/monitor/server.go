// ABOUTME: WebSocket status monitor for the playout engine
// ABOUTME: Broadcasts periodic JSON snapshots of consumer status and counters
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/openplayout/playout-go/pkg/playout"
)

// DefaultInterval is how often snapshots are pushed to connected clients.
const DefaultInterval = time.Second

// StatusSource is the subset of the consumer the monitor observes.
type StatusSource interface {
	Status() playout.Status
	Stats() playout.Stats
	String() string
}

// Snapshot is one monitoring update as sent on the wire.
type Snapshot struct {
	Consumer string         `json:"consumer"`
	Status   playout.Status `json:"status"`
	Stats    playout.Stats  `json:"stats"`
}

// Config configures a monitor server.
type Config struct {
	// Addr to listen on, e.g. ":9250". ":0" picks a free port.
	Addr string

	// Source to snapshot (required).
	Source StatusSource

	// Interval between pushed snapshots (default: DefaultInterval).
	Interval time.Duration

	// Debug enables per-client send logging.
	Debug bool
}

// Server pushes playout status snapshots to WebSocket subscribers.
type Server struct {
	config Config

	upgrader   websocket.Upgrader
	httpServer *http.Server
	listener   net.Listener

	clients   map[string]*client
	clientsMu sync.RWMutex

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// client is one connected subscriber.
type client struct {
	id       string
	conn     *websocket.Conn
	sendChan chan Snapshot
}

// NewServer creates a monitor server.
func NewServer(config Config) (*Server, error) {
	if config.Source == nil {
		return nil, fmt.Errorf("status source is required")
	}
	if config.Addr == "" {
		config.Addr = ":9250"
	}
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}

	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local-network monitoring tool, accept all origins.
				return true
			},
		},
		clients:  make(map[string]*client),
		stopChan: make(chan struct{}),
	}, nil
}

// Start binds the listener and begins serving and broadcasting.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("monitor listen: %w", err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/monitor", s.handleWebSocket)
	s.httpServer = &http.Server{Handler: mux}

	log.Printf("Monitor listening on %s", ln.Addr())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != http.ErrServerClosed {
			log.Printf("Monitor server error: %v", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.broadcastLoop()
	}()

	return nil
}

// Addr returns the bound address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and disconnects all clients.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.httpServer.Shutdown(ctx); err != nil {
				log.Printf("Monitor shutdown error: %v", err)
			}
		}

		s.clientsMu.Lock()
		for id, c := range s.clients {
			c.conn.Close()
			delete(s.clients, id)
		}
		s.clientsMu.Unlock()
	})

	s.wg.Wait()
}

// ClientCount returns the number of connected subscribers.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// broadcastLoop pushes a snapshot to every subscriber on each tick.
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.broadcast(s.snapshot())
		case <-s.stopChan:
			return
		}
	}
}

func (s *Server) snapshot() Snapshot {
	return Snapshot{
		Consumer: s.config.Source.String(),
		Status:   s.config.Source.Status(),
		Stats:    s.config.Source.Stats(),
	}
}

func (s *Server) broadcast(snap Snapshot) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		select {
		case c.sendChan <- snap:
		default:
			// Slow subscriber, drop this update.
			if s.config.Debug {
				log.Printf("Monitor client %s send buffer full", c.id)
			}
		}
	}
}

// handleWebSocket upgrades a connection and subscribes it to snapshots.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Monitor upgrade error: %v", err)
		return
	}

	c := &client{
		id:       uuid.New().String(),
		conn:     conn,
		sendChan: make(chan Snapshot, 8),
	}

	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()

	log.Printf("Monitor client connected: %s (%s)", c.id, r.RemoteAddr)

	// Immediate snapshot so new clients do not wait a full tick.
	c.sendChan <- s.snapshot()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	// Drain reads so close frames and pings are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.removeClient(c)
	log.Printf("Monitor client disconnected: %s", c.id)
}

// clientWriter sends snapshots and keepalive pings to one subscriber.
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case snap, ok := <-c.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}

		case <-s.stopChan:
			return
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[c.id]; !ok {
		return
	}
	delete(s.clients, c.id)
	close(c.sendChan)
	c.conn.Close()
}
