package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/figure-editor/backend/internal/session"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types
const (
	// Client -> Server messages
	MsgTypePing     = "ping"
	MsgTypeSnapshot = "snapshot"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeEvent     = "event"
	MsgTypeState     = "state"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// defaultWriteWait bounds a single write to the client.
const defaultWriteWait = 10 * time.Second

// WSMessage is the envelope of every WebSocket message.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Event     *session.Event  `json:"event,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is the payload of an error message.
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler streams session events to clients
type WebSocketHandler struct {
	sessionMgr *session.Manager
	upgrader   websocket.Upgrader
	writeWait  time.Duration
}

// NewWebSocketHandler creates a new event stream handler
func NewWebSocketHandler(sessionMgr *session.Manager, writeWait time.Duration) *WebSocketHandler {
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	return &WebSocketHandler{
		sessionMgr: sessionMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		writeWait: writeWait,
	}
}

// HandleEvents upgrades the connection and forwards every event of the
// session until the client disconnects or the session closes. Clients may
// send "ping" and "snapshot" messages; a snapshot request is answered with
// the full figure state.
func (wsh *WebSocketHandler) HandleEvents(c echo.Context) error {
	id := c.Param("sid")
	sess, ok := wsh.sessionMgr.Get(id)
	if !ok {
		return mapError(fmt.Errorf("%w: %s", session.ErrNotFound, id))
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	events, cancel := sess.Subscribe()
	defer cancel()

	fmt.Printf("[WebSocket] Client connected to session %s\n", shortSessionID(id))

	// Client requests are handed to the writer loop so that only one
	// goroutine writes to the connection.
	requests := make(chan WSMessage, 8)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(requests)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					fmt.Printf("[WebSocket] Connection error: %v\n", err)
				}
				return
			}
			select {
			case requests <- msg:
			case <-done:
				return
			}
		}
	}()

	if err := wsh.sendState(ws, id, MsgTypeConnected, ""); err != nil {
		return nil
	}

	for {
		select {
		case ev, open := <-events:
			if !open {
				fmt.Printf("[WebSocket] Session %s closed\n", shortSessionID(id))
				ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(wsh.writeWait))
				return nil
			}
			if err := wsh.send(ws, WSMessage{Type: MsgTypeEvent, Event: &ev}); err != nil {
				return nil
			}
		case msg, open := <-requests:
			if !open {
				fmt.Println("[WebSocket] Client disconnected")
				return nil
			}
			var err error
			switch msg.Type {
			case MsgTypePing:
				err = wsh.send(ws, WSMessage{Type: MsgTypePong, ID: msg.ID})
			case MsgTypeSnapshot:
				err = wsh.sendState(ws, id, MsgTypeState, msg.ID)
			default:
				err = wsh.sendError(ws, msg.ID, "Unknown message type: "+msg.Type, "INVALID_TYPE")
			}
			if err != nil {
				return nil
			}
		}
	}
}

// sendState sends the full figure state of the session.
func (wsh *WebSocketHandler) sendState(ws *websocket.Conn, id, typ, reqID string) error {
	var payload []byte
	err := wsh.sessionMgr.Do(id, func(s *session.Session) error {
		var err error
		payload, err = json.Marshal(s.View())
		return err
	})
	if err != nil {
		return wsh.sendError(ws, reqID, err.Error(), mapError(err).Code)
	}
	return wsh.send(ws, WSMessage{Type: typ, ID: reqID, Payload: payload})
}

func (wsh *WebSocketHandler) send(ws *websocket.Conn, msg WSMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	ws.SetWriteDeadline(time.Now().Add(wsh.writeWait))
	if err := ws.WriteJSON(msg); err != nil {
		fmt.Printf("[WebSocket] Failed to send message: %v\n", err)
		return err
	}
	return nil
}

func (wsh *WebSocketHandler) sendError(ws *websocket.Conn, reqID, message, code string) error {
	return wsh.send(ws, WSMessage{
		Type:    MsgTypeError,
		ID:      reqID,
		Payload: mustJSON(WSErrorResponse{Message: message, Code: code}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func shortSessionID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
