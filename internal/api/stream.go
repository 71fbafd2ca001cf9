package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types emitted over websockets.
const (
	EventStarted = "started"
	EventSignal  = "signal"
	EventReport  = "report"
)

// VerificationEvent describes websocket payloads emitted during verification runs.
type VerificationEvent struct {
	Type        string     `json:"type"`
	RequestID   string     `json:"request_id"`
	CompanyName string     `json:"company_name,omitempty"`
	Signal      *CheckDTO  `json:"signal,omitempty"`
	Report      *ReportDTO `json:"report,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// VerificationNotifier keeps track of feed subscribers and broadcasts finished reports.
type VerificationNotifier struct {
	mu         sync.Mutex
	clients    map[*wsClient]struct{}
	lastReport *VerificationEvent
}

// NewVerificationNotifier constructs a notifier instance.
func NewVerificationNotifier() *VerificationNotifier {
	return &VerificationNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the latest report, if any.
func (n *VerificationNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	last := n.lastReport
	n.mu.Unlock()

	if last != nil {
		_ = client.writeJSON(*last)
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *VerificationNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered websocket clients.
func (n *VerificationNotifier) Broadcast(event VerificationEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if event.Type == EventReport {
		snapshot := event
		n.lastReport = &snapshot
	}
	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
}

// LastReport returns the most recent report event.
func (n *VerificationNotifier) LastReport() *VerificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastReport == nil {
		return nil
	}
	copy := *n.lastReport
	return &copy
}

// Subscribers returns the number of connected feed clients.
func (n *VerificationNotifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

func (c *wsClient) close(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = c.conn.Close()
}
