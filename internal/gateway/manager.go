package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/inhausmakers/avatar-manager/internal/auth"
)

// Manager manages all active WebSocket connections and avatar event routing.
type Manager struct {
	mu          sync.RWMutex
	connections map[int64]*Connection // userID → connection
	sessions    map[string]*Connection

	tokens *auth.TokenService
}

// NewManager creates a gateway Manager.
func NewManager(tokens *auth.TokenService) *Manager {
	return &Manager{
		connections: make(map[int64]*Connection),
		sessions:    make(map[string]*Connection),
		tokens:      tokens,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// HandleWebSocket handles GET /gateway by upgrading to WebSocket.
func (m *Manager) HandleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("gateway upgrade error", "error", err)
		return nil
	}

	conn := newConnection(ws, m)

	conn.SendPayload(GatewayPayload{
		Op: OpHello,
		Data: mustMarshal(HelloData{
			HeartbeatInterval: int(heartbeatInterval.Milliseconds()),
		}),
	})

	go conn.writePump()
	go conn.readPump()

	return nil
}

// handleIdentify validates the client token and registers the connection.
func (m *Manager) handleIdentify(c *Connection, data json.RawMessage) {
	var identify IdentifyData
	if err := json.Unmarshal(data, &identify); err != nil {
		c.Close()
		return
	}

	claims, err := m.tokens.ValidateAccessToken(identify.Token)
	if err != nil {
		slog.Warn("gateway identify rejected", "error", err)
		c.Close()
		return
	}

	c.UserID = claims.UserID
	c.SessionID = uuid.NewString()
	m.register(c)

	c.SendEvent(EventReady, ReadyData{
		SessionID: c.SessionID,
		UserID:    c.UserID,
	})
}

// register adds a connection, displacing any existing one for the same user.
func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.connections[c.UserID]; ok {
		old.SendPayload(GatewayPayload{Op: OpReconnect})
		old.Close()
		delete(m.sessions, old.SessionID)
	}

	m.connections[c.UserID] = c
	m.sessions[c.SessionID] = c
}

func (m *Manager) unregister(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.connections[c.UserID]; ok && existing == c {
		delete(m.connections, c.UserID)
	}
	delete(m.sessions, c.SessionID)
}

// DispatchToUser sends an event to a single user's connection, if any.
func (m *Manager) DispatchToUser(userID int64, name string, data any) {
	m.mu.RLock()
	conn, ok := m.connections[userID]
	m.mu.RUnlock()

	if ok {
		conn.SendEvent(name, data)
	}
}

// Broadcast sends an event to every connected client.
func (m *Manager) Broadcast(name string, data any) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, conn := range m.connections {
		conn.SendEvent(name, data)
	}
}

// Shutdown closes every connection.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, conn := range m.connections {
		conn.Close()
	}
	m.connections = make(map[int64]*Connection)
	m.sessions = make(map[string]*Connection)
}

// mustMarshal marshals v to json.RawMessage, panicking on error.
// Only for statically-known types that cannot fail.
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("gateway: mustMarshal: " + err.Error())
	}
	return data
}
