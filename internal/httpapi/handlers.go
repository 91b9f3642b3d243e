package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/playnowemulator/room-server/internal/hub"
	"github.com/playnowemulator/room-server/internal/room"
	"github.com/playnowemulator/room-server/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// CreateRoom makes a new session from the posted options and returns
// its id. An empty body creates a room with all defaults.
func CreateRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts session.Options
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid options", http.StatusBadRequest)
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.CreateRoom{Opts: opts, Reply: reply}
		rm := <-reply
		if rm == nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			RoomID string `json:"roomId"`
		}{RoomID: rm.ID})
	}
}

// ListRooms is the lobby discovery feed: rooms still worth showing,
// i.e. waiting or playing.
func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []session.Summary, 1)
		h.Inbox() <- hub.ListRooms{Reply: reply}
		all := <-reply

		sessions := make([]session.Summary, 0, len(all))
		for _, s := range all {
			if s.Status == session.StatusWaiting || s.Status == session.StatusPlaying {
				sessions = append(sessions, s)
			}
		}

		writeJSON(w, http.StatusOK, struct {
			Sessions []session.Summary `json:"sessions"`
		}{Sessions: sessions})
	}
}

func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status    string `json:"status"`
		Timestamp int64  `json:"timestamp"`
	}{Status: "ok", Timestamp: time.Now().UnixMilli()})
}

// Stats reports operational counters plus a per-session breakdown.
func Stats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []session.Summary, 1)
		h.Inbox() <- hub.ListRooms{Reply: reply}
		sessions := <-reply

		players := 0
		for _, s := range sessions {
			players += s.CurrentPlayers
		}

		writeJSON(w, http.StatusOK, struct {
			Timestamp        int64             `json:"timestamp"`
			LobbySessions    int               `json:"lobbySessions"`
			ConnectedPlayers int               `json:"connectedPlayers"`
			Sessions         []session.Summary `json:"sessions"`
		}{
			Timestamp:        time.Now().UnixMilli(),
			LobbySessions:    len(sessions),
			ConnectedPlayers: players,
			Sessions:         sessions,
		})
	}
}
