package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	PingPeriod = (pongWait * 9) / 10
)

// Action is a client → server command.
type Action string

const (
	ActionPing Action = "ping"
)

// Event is a server → client message type.
type Event string

const (
	EventSubscribed Event = "subscribed"
	EventGraded     Event = "graded"
	EventPong       Event = "pong"
	EventError      Event = "error"
)

// RequestPayload is the envelope clients send.
type RequestPayload struct {
	Action Action `json:"action"`
}

// ResponsePayload is the envelope the server sends.
type ResponsePayload struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// ReadJSON reads one message and extends the read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	return conn.ReadJSON(v)
}

// PrepareConn installs the pong handler that keeps the read deadline alive.
func PrepareConn(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// WriteJSON sends an event with a write deadline.
func WriteJSON(conn *websocket.Conn, event Event, data interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ResponsePayload{Event: event, Data: data})
}

// WriteError sends an error event.
func WriteError(conn *websocket.Conn, msg string) error {
	return WriteJSON(conn, EventError, map[string]string{"message": msg})
}

// WritePing sends a control ping frame.
func WritePing(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}
