package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tc.com/rate-oracle/pkg/logging"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 45 * time.Second
)

// WebSocketServer streams price updates to connected clients.
type WebSocketServer struct {
	addr     string
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// wsClient represents one connected client.
type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *WebSocketServer
}

// priceUpdateMessage is sent to clients on every broadcast.
type priceUpdateMessage struct {
	Type  string         `json:"type"` // "price_update"
	Price *PriceResponse `json:"price"`
}

// NewWebSocketServer creates a new WebSocket streaming server.
func NewWebSocketServer(addr string, logger *logging.Logger) *WebSocketServer {
	ctx, cancel := context.WithCancel(context.Background())

	return &WebSocketServer{
		addr:   addr,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		clients: make(map[*wsClient]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts the WebSocket server and blocks until Stop is called.
func (s *WebSocketServer) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)

	server := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting WebSocket server", "addr", s.addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("WebSocket server error", "error", err)
		}
	}()

	<-s.ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Stop shuts the server down and disconnects all clients.
func (s *WebSocketServer) Stop() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		close(client.send)
		client.conn.Close()
	}
	s.clients = make(map[*wsClient]bool)
}

// Broadcast sends a price update to all connected clients. Clients with a
// full send buffer are dropped.
func (s *WebSocketServer) Broadcast(price *PriceResponse) {
	payload, err := json.Marshal(priceUpdateMessage{
		Type:  "price_update",
		Price: price,
	})
	if err != nil {
		s.logger.Error("Failed to marshal price update", "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		select {
		case client.send <- payload:
		default:
			s.logger.Warn("Client send buffer full, dropping client")
			go s.removeClient(client)
		}
	}
}

// handleWebSocket upgrades the connection and registers the client.
func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		send:   make(chan []byte, 16),
		server: s,
	}

	s.mu.Lock()
	s.clients[client] = true
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("WebSocket client connected", "remote", conn.RemoteAddr().String(), "clients", count)

	go client.writePump()
	go client.readPump()
}

// removeClient unregisters and disconnects a client.
func (s *WebSocketServer) removeClient(client *wsClient) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
	}
	s.mu.Unlock()

	client.conn.Close()
}

// readPump drains client messages to keep the connection alive. Clients
// only receive; any payload other than a control frame is ignored.
func (c *wsClient) readPump() {
	defer c.server.removeClient(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards broadcasts to the client and pings it periodically.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
