package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	s := New("r1", Options{})

	assert.Equal(t, DefaultGameTitle, s.GameTitle)
	assert.Equal(t, DefaultGamePlatform, s.GamePlatform)
	assert.Equal(t, DefaultMaxPlayers, s.MaxPlayers)
	assert.Equal(t, StatusWaiting, s.Status)
}

func TestNew_ClampsMaxPlayers(t *testing.T) {
	assert.Equal(t, DefaultMaxPlayers, New("r1", Options{MaxPlayers: 0}).MaxPlayers)
	assert.Equal(t, DefaultMaxPlayers, New("r1", Options{MaxPlayers: -3}).MaxPlayers)
	assert.Equal(t, 8, New("r1", Options{MaxPlayers: 8}).MaxPlayers)
}

func TestRemove_PreservesJoinOrder(t *testing.T) {
	s := New("r1", Options{})
	s.Add("a", &Member{Username: "alice", IsHost: true, JoinedAt: time.Now()})
	s.Add("b", &Member{Username: "bob", JoinedAt: time.Now()})
	s.Add("c", &Member{Username: "carol", JoinedAt: time.Now()})

	s.Remove("a")

	id, m := s.Earliest()
	assert.Equal(t, "b", id)
	assert.Equal(t, "bob", m.Username)

	players := s.Players()
	assert.Equal(t, []string{"b", "c"}, []string{players[0].SessionID, players[1].SessionID})
}

func TestRemove_Unknown(t *testing.T) {
	s := New("r1", Options{})
	assert.Nil(t, s.Remove("ghost"))
}

func TestSummary_HostFollowsPromotion(t *testing.T) {
	s := New("r1", Options{HostName: "alice"})
	assert.Equal(t, "alice", s.Summary().HostName, "falls back to creation options while empty")

	s.Add("a", &Member{Username: "alice", IsHost: true})
	s.Add("b", &Member{Username: "bob"})
	s.Remove("a")
	if _, m := s.Earliest(); m != nil {
		m.IsHost = true
	}

	assert.Equal(t, "bob", s.Summary().HostName)
	assert.Equal(t, 1, s.Summary().CurrentPlayers)
}
