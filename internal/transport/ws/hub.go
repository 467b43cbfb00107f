package ws

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Message is the WebSocket envelope format, both directions
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Connection is one board client attached to a classroom
type Connection struct {
	ClassroomID string
	TeacherID   string
	Send        chan []byte
}

// outbound is a message for every connection of a classroom, or for a
// single connection when Conn is set
type outbound struct {
	ClassroomID string
	Conn        *Connection
	Data        []byte
}

// Hub manages WebSocket connections for classrooms
type Hub struct {
	logger *zap.Logger

	// classroom -> connections, owned by Run
	conns map[string]map[*Connection]struct{}

	register   chan *Connection
	unregister chan *Connection
	disconnect chan string
	broadcast  chan *outbound
	done       chan struct{}
}

// NewHub creates a new WebSocket hub; call Run to start it
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		disconnect: make(chan string),
		broadcast:  make(chan *outbound, 256),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every connection
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for id := range h.conns {
				h.closeClassroom(id)
			}
			return nil

		case conn := <-h.register:
			if h.conns[conn.ClassroomID] == nil {
				h.conns[conn.ClassroomID] = make(map[*Connection]struct{})
			}
			h.conns[conn.ClassroomID][conn] = struct{}{}
			h.logger.Info("board client connected",
				zap.String("classroom", conn.ClassroomID),
				zap.Int("clients", len(h.conns[conn.ClassroomID])))

		case conn := <-h.unregister:
			if clients, ok := h.conns[conn.ClassroomID]; ok {
				if _, ok := clients[conn]; ok {
					delete(clients, conn)
					close(conn.Send)
					if len(clients) == 0 {
						delete(h.conns, conn.ClassroomID)
					}
					h.logger.Info("board client disconnected", zap.String("classroom", conn.ClassroomID))
				}
			}

		case id := <-h.disconnect:
			h.closeClassroom(id)

		case msg := <-h.broadcast:
			clients := h.conns[msg.ClassroomID]
			if msg.Conn != nil {
				if _, ok := clients[msg.Conn]; ok {
					h.deliver(msg.Conn, msg.Data)
				}
				continue
			}
			for conn := range clients {
				h.deliver(conn, msg.Data)
			}
		}
	}
}

func (h *Hub) deliver(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		// Drop message if buffer full
		h.logger.Warn("board client too slow, dropping message", zap.String("classroom", conn.ClassroomID))
	}
}

func (h *Hub) closeClassroom(id string) {
	clients, ok := h.conns[id]
	if !ok {
		return
	}
	for conn := range clients {
		close(conn.Send)
	}
	delete(h.conns, id)
	h.logger.Info("classroom connections closed", zap.String("classroom", id), zap.Int("clients", len(clients)))
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) bool {
	select {
	case h.register <- conn:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastToClassroom sends a message to every client of a classroom
// (implements service.Broadcaster)
func (h *Hub) BroadcastToClassroom(classroomID, msgType string, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		h.logger.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	h.enqueue(&outbound{ClassroomID: classroomID, Data: data})
}

// SendTo sends a message to a single connection if it is still registered
func (h *Hub) SendTo(conn *Connection, msgType string, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		h.logger.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	h.enqueue(&outbound{ClassroomID: conn.ClassroomID, Conn: conn, Data: data})
}

// DisconnectClassroom closes every client of a classroom
// (implements service.Broadcaster)
func (h *Hub) DisconnectClassroom(classroomID string) {
	select {
	case h.disconnect <- classroomID:
	case <-h.done:
	}
}

func (h *Hub) enqueue(msg *outbound) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: msgType, Payload: raw})
}
