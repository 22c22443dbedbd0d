package lobby

import (
	"slices"

	"github.com/google/uuid"

	"github.com/KDT2006/roguelobby/internal/dungeon"
	"github.com/KDT2006/roguelobby/internal/protocol"
)

// Member is a connected player as seen by the lobby. The lobby never owns
// members; the server roster does.
type Member interface {
	ID() uuid.UUID
	Name() string
	Send(ev protocol.Event) error
}

// Session is one lobby or running match. All fields are guarded by the
// owning Manager's mutex.
type Session struct {
	id        uuid.UUID
	dungeonID string
	dmap      dungeon.Map
	members   []Member
	ready     map[uuid.UUID]bool
	started   bool
}

func newSession(id uuid.UUID, host Member, m dungeon.Map) *Session {
	return &Session{
		id:        id,
		dungeonID: m.DungeonID,
		dmap:      m,
		members:   []Member{host},
		ready:     make(map[uuid.UUID]bool),
	}
}

func (s *Session) indexOf(playerID uuid.UUID) int {
	return slices.IndexFunc(s.members, func(m Member) bool {
		return m.ID() == playerID
	})
}

func (s *Session) has(playerID uuid.UUID) bool {
	return s.indexOf(playerID) >= 0
}

func (s *Session) add(m Member) {
	if !s.has(m.ID()) {
		s.members = append(s.members, m)
	}
}

func (s *Session) remove(playerID uuid.UUID) bool {
	i := s.indexOf(playerID)
	if i < 0 {
		return false
	}
	s.members = slices.Delete(s.members, i, i+1)
	delete(s.ready, playerID)
	return true
}

// allReady is false for an empty session so that it can never start by
// vacuous truth.
func (s *Session) allReady() bool {
	if len(s.members) == 0 {
		return false
	}
	for _, m := range s.members {
		if !s.ready[m.ID()] {
			return false
		}
	}
	return true
}

func (s *Session) snapshot() []Member {
	return slices.Clone(s.members)
}

func (s *Session) except(playerID uuid.UUID) []Member {
	return slices.DeleteFunc(s.snapshot(), func(m Member) bool {
		return m.ID() == playerID
	})
}

func (s *Session) info() SessionInfo {
	players := make([]string, len(s.members))
	ready := 0
	for i, m := range s.members {
		players[i] = m.Name()
		if s.ready[m.ID()] {
			ready++
		}
	}

	return SessionInfo{
		ID:        s.id,
		DungeonID: s.dungeonID,
		Players:   players,
		Ready:     ready,
		Started:   s.started,
	}
}

// SessionInfo is a point-in-time view of a session, safe to share.
type SessionInfo struct {
	ID        uuid.UUID
	DungeonID string
	Players   []string
	Ready     int
	Started   bool
}

// Params renders the info as event parameters.
func (i SessionInfo) Params() map[string]any {
	return map[string]any{
		protocol.ParamID:        i.ID.String(),
		protocol.ParamDungeonID: i.DungeonID,
		"players":               slices.Clone(i.Players),
		"ready":                 i.Ready,
		"started":               i.Started,
	}
}
