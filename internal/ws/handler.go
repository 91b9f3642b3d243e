package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/playnowemulator/room-server/internal/engine"
	"github.com/playnowemulator/room-server/internal/hub"
	"github.com/playnowemulator/room-server/internal/room"
	"github.com/playnowemulator/room-server/internal/types"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 3 * time.Second
	outboxSize   = 16
)

// Handler upgrades a client connection and bridges it to its room:
// frames in, events out, socket close = leave. The gateway never looks
// past the envelope type; payload semantics belong to the engine.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("roomId")
		if roomID == "" {
			http.Error(w, "missing roomId", http.StatusBadRequest)
			return
		}
		userID := r.URL.Query().Get("userId")
		username := r.URL.Query().Get("username")

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.GetRoom{ID: roomID, Reply: reply}
		rm := <-reply
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := randID(9)
		out := make(chan types.ServerMessage, outboxSize)

		joined := make(chan error, 1)
		if !rm.Send(room.Join{ConnID: connID, UserID: userID, Username: username, Outbox: out, Reply: joined}) {
			// Room shut down between lookup and join.
			writeFrame(r.Context(), conn, types.ServerMessage{Type: "error", Error: "room not found"})
			return
		}
		if err := <-joined; err != nil {
			// Join failures go to this connection only, never the room.
			writeFrame(r.Context(), conn, types.ServerMessage{Type: "error", Error: err.Error()})
			conn.Close(websocket.StatusPolicyViolation, err.Error())
			return
		}
		defer func() { rm.Send(room.Leave{ConnID: connID}) }()

		log.Debug("client joined", zap.String("room", roomID), zap.String("conn", connID))

		// Writer goroutine: drains the outbox the room broadcasts into.
		// The room closes the outbox on leave/drop/shutdown.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for frame := range out {
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				err := writeFrame(ctx, conn, frame)
				cancel()
				if err != nil {
					// Broken pipe; the reader will fail too and the
					// deferred Leave cleans up.
					return
				}
			}
		}()

		// Reader loop.
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil || cm.Type == "" {
				_ = writeFrame(r.Context(), conn, types.ServerMessage{Type: "error", Error: engine.ErrMalformedMessage.Error()})
				continue
			}

			// Heartbeats are answered here and never cross the room
			// boundary.
			if cm.Type == "heartbeat" {
				_ = writeFrame(r.Context(), conn, types.ServerMessage{
					Type:    "heartbeat-ack",
					Payload: map[string]int64{"timestamp": time.Now().UnixMilli()},
				})
				continue
			}

			if !rm.Send(room.FromClient{ConnID: connID, Type: cm.Type, Payload: cm.Payload}) {
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame types.ServerMessage) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
