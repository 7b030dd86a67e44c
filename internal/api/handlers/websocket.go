package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	ws "github.com/nice-timetable/backend/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Local-only daemon; app and widget processes connect via loopback
		return true
	},
}

// WebSocketUpgrade upgrades an HTTP connection and registers the display
// surface with the hub. The surface kind (app, widget, watch) comes from
// the ?kind= query parameter and is only used for logging.
func WebSocketUpgrade(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		surface := ws.NewSurface(r.URL.Query().Get("kind"))
		hub.Register(surface)

		go writePump(conn, surface)
		go readPump(conn, surface, hub)
	}
}

// writePump pumps hub messages to the connection and keeps it alive with
// periodic pings.
func writePump(conn *websocket.Conn, surface *ws.Surface) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-surface.Send():
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection until it drops, then unregisters the
// surface. Surfaces only ever send pings; everything else is ignored.
func readPump(conn *websocket.Conn, surface *ws.Surface, hub *ws.Hub) {
	defer func() {
		hub.Unregister(surface)
		conn.Close()
	}()

	conn.SetReadLimit(65536)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		handleSurfaceMessage(surface, message)
	}
}

// handleSurfaceMessage answers application-level pings and rejects unknown
// commands. Replies go through the surface's send channel since only
// writePump may write to the connection.
func handleSurfaceMessage(surface *ws.Surface, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	var reply ws.Message
	switch msg.Type {
	case ws.TypePing:
		reply = ws.NewMessage(ws.TypePong, nil)
	default:
		reply = ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:    "unknown_command",
			Message: "Unrecognized message type: " + string(msg.Type),
		})
	}

	data, err := reply.JSON()
	if err != nil {
		return
	}
	surface.TrySend(data)
}
