package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/KDT2006/roguelobby/internal/protocol"
	"github.com/KDT2006/roguelobby/internal/transport"
)

// DefaultPlayerName is used until the client announces itself.
const DefaultPlayerName = "???"

// Player is the server-side record of one connected client.
type Player struct {
	id   uuid.UUID
	conn *transport.Conn

	mu   sync.RWMutex
	name string
}

func newPlayer() *Player {
	return &Player{
		id:   uuid.New(),
		name: DefaultPlayerName,
	}
}

func (p *Player) ID() uuid.UUID {
	return p.id
}

func (p *Player) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

func (p *Player) setName(name string) {
	p.mu.Lock()
	p.name = name
	p.mu.Unlock()
}

// Send writes ev to the player's connection.
func (p *Player) Send(ev protocol.Event) error {
	return p.conn.Send(ev)
}

func (p *Player) info() PlayerInfo {
	return PlayerInfo{
		ID:     p.id,
		Name:   p.Name(),
		Remote: p.conn.RemoteAddr().String(),
		State:  p.conn.State().String(),
	}
}

// PlayerInfo is a snapshot of a roster entry.
type PlayerInfo struct {
	ID     uuid.UUID
	Name   string
	Remote string
	State  string
}
