// Package gateway terminates client WebSocket connections and translates
// spec.md 6.1's JSON client/server envelopes into table.Event actor
// messages. Identity comes from the auth package's session tokens, not
// the connection itself.
package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"holdem-tourney/apps/server/internal/auth"
	"holdem-tourney/apps/server/internal/codec"
	"holdem-tourney/apps/server/internal/lobby"
	"holdem-tourney/apps/server/internal/protocol"
	"holdem-tourney/apps/server/internal/table"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict to configured origins before production use.
	},
}

// Connection represents one authenticated WebSocket client.
type Connection struct {
	ID       string
	UserID   uint64
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	LastPing time.Time

	mu      sync.Mutex
	TableID string
	Table   *table.Table
}

// Gateway manages WebSocket connections and dispatches their messages.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	userConns   map[uint64]*Connection
	nextConnID  uint64

	auth  auth.Service
	lobby *lobby.Lobby
}

// New creates a new Gateway instance. lby may be nil if the lobby itself
// needs this Gateway's BroadcastToUser method to construct; call SetLobby
// once it's built.
func New(lby *lobby.Lobby, authService auth.Service) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		userConns:   make(map[uint64]*Connection),
		auth:        authService,
		lobby:       lby,
	}
}

// SetLobby wires the lobby after construction, breaking the Gateway/Lobby
// constructor cycle (the lobby needs a broadcast func bound to this Gateway).
func (g *Gateway) SetLobby(lby *lobby.Lobby) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lobby = lby
}

// Lobby returns the currently wired lobby (nil until SetLobby runs).
func (g *Gateway) Lobby() *lobby.Lobby {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lobby
}

// HandleWebSocket authenticates the session token passed as ?token=... and
// upgrades the connection.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, username, ok := g.auth.ResolveSession(token)
	if !ok {
		http.Error(w, "invalid or missing session token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	connID := fmt.Sprintf("conn_%d", g.nextConnID)
	c := &Connection{
		ID:       connID,
		UserID:   userID,
		Username: username,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Gateway:  g,
		LastPing: time.Now(),
	}
	g.connections[connID] = c
	g.userConns[userID] = c
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: %s (user=%s/%d), total: %d", connID, username, userID, len(g.connections))

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.notifyConnLost()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	var env protocol.ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("[Gateway] Failed to unmarshal: %v", err)
		c.sendError("bad_request", "invalid message format")
		return
	}

	switch env.Type {
	case protocol.ClientSubscribeTable:
		c.handleSubscribeTable(env.TableID)
	case protocol.ClientUnsubscribeTable:
		c.handleUnsubscribeTable()
	case protocol.ClientPlayerAction:
		c.handlePlayerAction(env)
	default:
		log.Printf("[Gateway] Unknown envelope type from user %d: %q", c.UserID, env.Type)
		c.sendError("bad_request", "unknown message type")
	}
}

func (c *Connection) handleSubscribeTable(tableID string) {
	t := c.Gateway.Lobby().GetTable(tableID)
	if t == nil {
		c.sendError("not_found", "table not found")
		return
	}

	c.mu.Lock()
	c.TableID = tableID
	c.Table = t
	c.mu.Unlock()

	if err := t.SubmitEvent(table.Event{
		Type:     table.EventJoinTable,
		UserID:   c.UserID,
		Nickname: c.Username,
	}); err != nil {
		c.sendError("join_failed", err.Error())
	}
	log.Printf("[Gateway] User %d subscribed to table %s", c.UserID, tableID)
}

func (c *Connection) handleUnsubscribeTable() {
	c.mu.Lock()
	c.TableID = ""
	c.Table = nil
	c.mu.Unlock()
}

func (c *Connection) handlePlayerAction(env protocol.ClientEnvelope) {
	t := c.currentTable()
	if t == nil {
		c.sendError("not_subscribed", "not subscribed to a table")
		return
	}

	action := codec.WireAction(env.Action)
	if err := t.SubmitEvent(table.Event{
		Type:   table.EventAction,
		UserID: c.UserID,
		Action: action,
		Amount: env.Amount,
	}); err != nil {
		c.sendError("action_rejected", err.Error())
	}
}

func (c *Connection) currentTable() *table.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Table
}

func (c *Connection) notifyConnLost() {
	t := c.currentTable()
	if t == nil {
		return
	}
	_ = t.SubmitEvent(table.Event{Type: table.EventConnLost, UserID: c.UserID})
}

func (c *Connection) sendError(code, msg string) {
	env := protocol.NewError(code, msg)
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.connections, c.ID)
	if g.userConns[c.UserID] == c {
		delete(g.userConns, c.UserID)
	}
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, len(g.connections))
}

// BroadcastToUser sends a pre-encoded wire message to one user, if
// connected. Passed into table.New/lobby.New as the table layer's
// broadcast callback.
func (g *Gateway) BroadcastToUser(userID uint64, data []byte) {
	g.mu.RLock()
	c := g.userConns[userID]
	g.mu.RUnlock()
	if c == nil {
		return
	}
	select {
	case c.Send <- data:
	default:
		// Drop if the client's outbound buffer is full.
	}
}

// Broadcast sends a message to every connected client.
func (g *Gateway) Broadcast(message []byte) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.connections {
		select {
		case c.Send <- message:
		default:
		}
	}
}
