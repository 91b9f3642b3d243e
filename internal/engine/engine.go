package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playnowemulator/room-server/internal/session"
)

var ErrRoomFull = errors.New("room is full")
var ErrRoomNotJoinable = errors.New("room is not joinable")
var ErrNotAMember = errors.New("not a member of this room")
var ErrNotAuthorized = errors.New("not authorized")
var ErrMalformedMessage = errors.New("malformed message")
var ErrUnknownType = errors.New("unknown message type")

// Client -> server message types.
const (
	TypeStartGame    = "start-game"
	TypeInputCommand = "input-command"
	TypeGameFrame    = "game-frame"
	TypeChatMessage  = "chat-message"
	TypePlayerUpdate = "player-update"
	TypeRequestState = "request-state"
)

// Server -> client event types.
const (
	TypePlayerJoined = "player-joined"
	TypePlayerLeft   = "player-left"
	TypeHostChanged  = "host-changed"
	TypeGameStarted  = "game-started"
	TypeRoomState    = "room-state"
	TypeStateSync    = "state-sync"
)

// Effect is a frame the room must deliver after a handler runs.
// To set: direct send to that member. Otherwise: broadcast to every
// member except Exclude (Exclude empty = everyone).
type Effect struct {
	Type    string
	Payload any
	To      string
	Exclude string
}

type PlayerJoined struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	IsHost   bool   `json:"isHost"`
}

type PlayerLeft struct {
	PlayerID string `json:"playerId"`
}

type HostChanged struct {
	HostID   string `json:"hostId"`
	Username string `json:"username"`
}

type GameStarted struct {
	Timestamp int64 `json:"timestamp"`
}

type RoomState struct {
	RoomID  string               `json:"roomId"`
	Players []session.PlayerInfo `json:"players"`
}

type ChatMessage struct {
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type handlerFunc func(s *session.Session, from string, payload json.RawMessage) ([]Effect, error)

// One dispatch table shared by every room. Handlers operate on the
// session passed in and never touch cross-room state.
var handlers = map[string]handlerFunc{
	TypeStartGame:    handleStartGame,
	TypeInputCommand: handleInputCommand,
	TypeGameFrame:    handleGameFrame,
	TypeChatMessage:  handleChat,
	TypePlayerUpdate: handlePlayerUpdate,
	TypeRequestState: handleRequestState,
}

// Apply routes one in-room message through the dispatch table.
func Apply(s *session.Session, from, msgType string, payload json.RawMessage) ([]Effect, error) {
	h, ok := handlers[msgType]
	if !ok {
		return nil, ErrUnknownType
	}
	return h(s, from, payload)
}

// Join admits a new member. The first joiner becomes host. The joiner
// gets the roster snapshot; everyone is told about the new player.
func Join(s *session.Session, connID, userID, username string) ([]Effect, error) {
	if s.Status != session.StatusWaiting {
		return nil, ErrRoomNotJoinable
	}
	if s.Len() >= s.MaxPlayers {
		return nil, ErrRoomFull
	}
	if username == "" {
		username = fmt.Sprintf("Player %d", s.Len()+1)
	}
	m := &session.Member{
		UserID:   userID,
		Username: username,
		IsHost:   s.Len() == 0,
		JoinedAt: time.Now(),
	}
	s.Add(connID, m)

	return []Effect{
		{Type: TypePlayerJoined, Payload: PlayerJoined{PlayerID: connID, Username: m.Username, IsHost: m.IsHost}},
		{Type: TypeRoomState, To: connID, Payload: RoomState{RoomID: s.RoomID, Players: s.Players()}},
	}, nil
}

// Leave removes a member. If the host left and members remain, the
// earliest joiner is promoted. A drained session stays joinable until
// the room decides to dispose it (grace period), so the finished
// transition happens there, not here.
func Leave(s *session.Session, connID string) ([]Effect, error) {
	m := s.Remove(connID)
	if m == nil {
		return nil, ErrNotAMember
	}
	effects := []Effect{
		{Type: TypePlayerLeft, Payload: PlayerLeft{PlayerID: connID}},
	}
	if m.IsHost && s.Len() > 0 {
		id, next := s.Earliest()
		next.IsHost = true
		effects = append(effects, Effect{Type: TypeHostChanged, Payload: HostChanged{HostID: id, Username: next.Username}})
	}
	return effects, nil
}

func handleStartGame(s *session.Session, from string, _ json.RawMessage) ([]Effect, error) {
	m, ok := s.Get(from)
	if !ok {
		return nil, ErrNotAMember
	}
	// Only the host may start; the server-side flag is the sole source
	// of truth.
	if !m.IsHost {
		return nil, ErrNotAuthorized
	}
	if s.Status != session.StatusWaiting {
		// Repeat start, benign no-op.
		return nil, nil
	}
	s.Status = session.StatusPlaying
	return []Effect{
		{Type: TypeGameStarted, Payload: GameStarted{Timestamp: time.Now().UnixMilli()}},
	}, nil
}

func handleInputCommand(s *session.Session, from string, payload json.RawMessage) ([]Effect, error) {
	if _, ok := s.Get(from); !ok {
		return nil, ErrNotAMember
	}
	return []Effect{
		{Type: TypeInputCommand, Payload: payload, Exclude: from},
	}, nil
}

func handleGameFrame(s *session.Session, from string, payload json.RawMessage) ([]Effect, error) {
	m, ok := s.Get(from)
	if !ok {
		return nil, ErrNotAMember
	}
	// Frames are authoritative only from the host. Anything else is a
	// stale sender or a misbehaving client; drop it.
	if !m.IsHost {
		return nil, ErrNotAuthorized
	}
	return []Effect{
		{Type: TypeGameFrame, Payload: payload, Exclude: from},
	}, nil
}

func handleChat(s *session.Session, from string, payload json.RawMessage) ([]Effect, error) {
	m, ok := s.Get(from)
	if !ok {
		return nil, ErrNotAMember
	}
	var in struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, ErrMalformedMessage
	}
	return []Effect{
		{
			Type:    TypeChatMessage,
			Payload: ChatMessage{Sender: m.Username, Message: in.Message, Timestamp: time.Now().UnixMilli()},
			Exclude: from,
		},
	}, nil
}

func handlePlayerUpdate(s *session.Session, from string, payload json.RawMessage) ([]Effect, error) {
	m, ok := s.Get(from)
	if !ok {
		return nil, ErrNotAMember
	}
	// Only display fields are merged. isHost and userId are never
	// client-writable.
	var in struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, ErrMalformedMessage
	}
	if in.Username != "" {
		m.Username = in.Username
	}
	return nil, nil
}

func handleRequestState(s *session.Session, from string, _ json.RawMessage) ([]Effect, error) {
	return []Effect{
		{Type: TypeStateSync, To: from, Payload: s.Snapshot()},
	}, nil
}
