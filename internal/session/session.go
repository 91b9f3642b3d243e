package session

import "time"

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

const (
	DefaultGameTitle    = "Unknown Game"
	DefaultGamePlatform = "snes"
	DefaultMaxPlayers   = 4
)

// Options is what a client supplies when creating a room.
type Options struct {
	SessionName  string `json:"sessionName,omitempty"`
	GameID       string `json:"gameId,omitempty"`
	GameTitle    string `json:"gameTitle,omitempty"`
	GamePlatform string `json:"gamePlatform,omitempty"`
	MaxPlayers   int    `json:"maxPlayers,omitempty"`
	HostUserID   string `json:"hostUserId,omitempty"`
	HostName     string `json:"hostName,omitempty"`
}

type Member struct {
	UserID   string
	Username string
	IsHost   bool
	JoinedAt time.Time
}

// Session is the authoritative state of one room. It is only ever
// mutated from that room's goroutine, so it carries no locking.
type Session struct {
	RoomID       string
	SessionName  string
	GameID       string
	GameTitle    string
	GamePlatform string
	HostName     string
	MaxPlayers   int
	Status       Status
	CreatedAt    time.Time

	members map[string]*Member
	order   []string // join order, drives host succession
}

func New(roomID string, opts Options) *Session {
	if opts.GameTitle == "" {
		opts.GameTitle = DefaultGameTitle
	}
	if opts.GamePlatform == "" {
		opts.GamePlatform = DefaultGamePlatform
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	return &Session{
		RoomID:       roomID,
		SessionName:  opts.SessionName,
		GameID:       opts.GameID,
		GameTitle:    opts.GameTitle,
		GamePlatform: opts.GamePlatform,
		HostName:     opts.HostName,
		MaxPlayers:   opts.MaxPlayers,
		Status:       StatusWaiting,
		CreatedAt:    time.Now(),
		members:      make(map[string]*Member),
	}
}

func (s *Session) Len() int { return len(s.members) }

func (s *Session) Get(connID string) (*Member, bool) {
	m, ok := s.members[connID]
	return m, ok
}

func (s *Session) Add(connID string, m *Member) {
	s.members[connID] = m
	s.order = append(s.order, connID)
}

// Remove deletes the member and returns it, or nil if unknown.
func (s *Session) Remove(connID string) *Member {
	m, ok := s.members[connID]
	if !ok {
		return nil
	}
	delete(s.members, connID)
	for i, id := range s.order {
		if id == connID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return m
}

// Earliest returns the longest-standing member, the host successor
// when the current host leaves.
func (s *Session) Earliest() (string, *Member) {
	if len(s.order) == 0 {
		return "", nil
	}
	id := s.order[0]
	return id, s.members[id]
}

// Host returns the current host, or nil for an empty session.
func (s *Session) Host() (string, *Member) {
	for _, id := range s.order {
		if m := s.members[id]; m.IsHost {
			return id, m
		}
	}
	return "", nil
}

type PlayerInfo struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	IsHost    bool   `json:"isHost"`
}

// Players lists members in join order.
func (s *Session) Players() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(s.order))
	for _, id := range s.order {
		m := s.members[id]
		out = append(out, PlayerInfo{SessionID: id, Username: m.Username, IsHost: m.IsHost})
	}
	return out
}

// Snapshot is the full session view sent on state-sync.
type Snapshot struct {
	RoomID         string       `json:"roomId"`
	SessionName    string       `json:"sessionName,omitempty"`
	GameID         string       `json:"gameId,omitempty"`
	GameTitle      string       `json:"gameTitle"`
	GamePlatform   string       `json:"gamePlatform"`
	MaxPlayers     int          `json:"maxPlayers"`
	CurrentPlayers int          `json:"currentPlayers"`
	Status         Status       `json:"status"`
	Players        []PlayerInfo `json:"players"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		RoomID:         s.RoomID,
		SessionName:    s.SessionName,
		GameID:         s.GameID,
		GameTitle:      s.GameTitle,
		GamePlatform:   s.GamePlatform,
		MaxPlayers:     s.MaxPlayers,
		CurrentPlayers: len(s.members),
		Status:         s.Status,
		Players:        s.Players(),
	}
}

// Summary is the discovery/stats view of a session, also what gets
// published to the external directory store.
type Summary struct {
	RoomID         string    `json:"sessionId"`
	SessionName    string    `json:"sessionName,omitempty"`
	GameID         string    `json:"gameId,omitempty"`
	GameTitle      string    `json:"gameTitle"`
	GamePlatform   string    `json:"gamePlatform"`
	HostName       string    `json:"hostName,omitempty"`
	CurrentPlayers int       `json:"currentPlayers"`
	MaxPlayers     int       `json:"maxPlayers"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (s *Session) Summary() Summary {
	hostName := s.HostName
	if _, host := s.Host(); host != nil {
		hostName = host.Username
	}
	return Summary{
		RoomID:         s.RoomID,
		SessionName:    s.SessionName,
		GameID:         s.GameID,
		GameTitle:      s.GameTitle,
		GamePlatform:   s.GamePlatform,
		HostName:       hostName,
		CurrentPlayers: len(s.members),
		MaxPlayers:     s.MaxPlayers,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt,
	}
}
