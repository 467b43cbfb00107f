package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smartclass/internal/model"
	"smartclass/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 256
	snapshotWait   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// TokenValidator checks teacher tokens
type TokenValidator interface {
	ValidateToken(token string) (*model.TeacherClaims, error)
}

// Classrooms is the part of the classroom service the socket needs
type Classrooms interface {
	Get(ctx context.Context, teacherID, id string) (*model.Classroom, error)
	State(ctx context.Context, teacherID, id string) (*model.ClassroomState, error)
	Suggestions(ctx context.Context, teacherID, id string) ([]model.SuggestionAction, error)
	HandleMessage(ctx context.Context, classroomID, msgType string, payload json.RawMessage) error
}

// Handler handles WebSocket connections
type Handler struct {
	logger     *zap.Logger
	hub        *Hub
	auth       TokenValidator
	classrooms Classrooms
}

// NewHandler creates a new WebSocket handler
func NewHandler(logger *zap.Logger, hub *Hub, auth TokenValidator, classrooms Classrooms) *Handler {
	return &Handler{
		logger:     logger,
		hub:        hub,
		auth:       auth,
		classrooms: classrooms,
	}
}

// ClassroomWS handles GET /v1/ws/classrooms/{id}
func (h *Handler) ClassroomWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	classroom, err := h.classrooms.Get(r.Context(), claims.TeacherID, id)
	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		http.Error(w, "classroom not found", http.StatusNotFound)
		return
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, "classroom belongs to another teacher", http.StatusForbidden)
		return
	case err != nil:
		http.Error(w, "failed to load classroom", http.StatusInternalServerError)
		return
	}
	if classroom.Status != model.ClassroomLive {
		http.Error(w, "classroom has ended", http.StatusConflict)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		ClassroomID: id,
		TeacherID:   claims.TeacherID,
		Send:        make(chan []byte, sendBuffer),
	}
	// Queued before Register so the client starts from the current state
	h.queueSnapshot(conn)

	if !h.hub.Register(conn) {
		wsConn.Close()
		return
	}

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) queueSnapshot(conn *Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotWait)
	defer cancel()

	if state, err := h.classrooms.State(ctx, conn.TeacherID, conn.ClassroomID); err == nil {
		queue(conn, service.MsgHistoryState, map[string]bool{"canUndo": state.CanUndo, "canRedo": state.CanRedo})
		queue(conn, service.MsgToolState, map[string]interface{}{
			"tool":      state.Tool,
			"color":     state.Color,
			"lineWidth": state.LineWidth,
		})
		queue(conn, service.MsgListeningState, map[string]bool{"listening": state.Listening, "supported": state.SpeechSupported})
	}
	if suggestions, err := h.classrooms.Suggestions(ctx, conn.TeacherID, conn.ClassroomID); err == nil {
		queue(conn, service.MsgSuggestionsUpdate, suggestions)
	}
}

func queue(conn *Connection, msgType string, payload interface{}) {
	if data, err := encode(msgType, payload); err == nil {
		conn.Send <- data
	}
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.String("classroom", conn.ClassroomID), zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.hub.SendTo(conn, service.MsgError, map[string]string{"message": "malformed message"})
			continue
		}

		if err := h.classrooms.HandleMessage(ctx, conn.ClassroomID, msg.Type, msg.Payload); err != nil {
			h.logger.Debug("board message rejected",
				zap.String("classroom", conn.ClassroomID),
				zap.String("type", msg.Type),
				zap.Error(err))
			h.hub.SendTo(conn, service.MsgError, map[string]string{"message": err.Error()})
			if errors.Is(err, service.ErrClassroomNotLive) {
				break
			}
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
