package lobby

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KDT2006/roguelobby/internal/dungeon"
	"github.com/KDT2006/roguelobby/internal/protocol"
)

type delivery struct {
	to Member
	ev protocol.Event
}

// outbox collects events composed under the manager lock so they can be
// sent after it is released.
type outbox []delivery

func (o *outbox) add(ev protocol.Event, to ...Member) {
	for _, m := range to {
		*o = append(*o, delivery{to: m, ev: ev})
	}
}

// Manager is the session registry. It owns every Session; members are
// borrowed from the server roster.
type Manager struct {
	catalog *dungeon.Catalog
	rules   Rules
	log     *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	order    []uuid.UUID
}

type Option func(*Manager)

func WithRules(r Rules) Option {
	return func(m *Manager) {
		m.rules = r
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

func NewManager(catalog *dungeon.Catalog, opts ...Option) *Manager {
	m := &Manager{
		catalog:  catalog,
		rules:    NopRules{},
		log:      zap.NewNop(),
		sessions: make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Host creates a session for dungeonID with player as its first member.
func (m *Manager) Host(player Member, dungeonID string) (SessionInfo, error) {
	if dungeonID == "" {
		return SessionInfo{}, fmt.Errorf("%w: missing %s", ErrInvalidParams, protocol.ParamDungeonID)
	}

	dmap, ok := m.catalog.Lookup(dungeonID)
	if !ok {
		return SessionInfo{}, fmt.Errorf("%w: %s", ErrUnknownDungeon, dungeonID)
	}

	m.mu.Lock()
	id := uuid.New()
	for m.sessions[id] != nil {
		id = uuid.New()
	}
	s := newSession(id, player, dmap)
	m.sessions[id] = s
	m.order = append(m.order, id)
	info := s.info()
	m.mu.Unlock()

	m.log.Info("session hosted",
		zap.Stringer("session", id),
		zap.String("dungeon", m.catalog.Name(dungeonID)),
		zap.String("player", player.Name()))

	return info, nil
}

// Get returns the sessions running dungeonID, in creation order.
func (m *Manager) Get(dungeonID string) []SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]SessionInfo, 0)
	for _, id := range m.order {
		if s := m.sessions[id]; s.dungeonID == dungeonID {
			infos = append(infos, s.info())
		}
	}
	return infos
}

func (m *Manager) GetAll() []SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]SessionInfo, 0, len(m.order))
	for _, id := range m.order {
		infos = append(infos, m.sessions[id].info())
	}
	return infos
}

// Session returns a snapshot of one session.
func (m *Manager) Session(id uuid.UUID) (SessionInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return SessionInfo{}, false
	}
	return s.info(), true
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SessionsFor lists the sessions playerID currently belongs to.
func (m *Manager) SessionsFor(playerID uuid.UUID) []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []uuid.UUID
	for _, id := range m.order {
		if m.sessions[id].has(playerID) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Join adds player to a session, sends it the session map and tells the
// other members. Joining a session twice only resends the map.
func (m *Manager) Join(player Member, sessionID uuid.UUID) error {
	var out outbox

	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("join %s: %w", sessionID, ErrSessionNotFound)
	}

	if s.has(player.ID()) {
		out.add(mapEvent(s.id, s.dmap), player)
		m.mu.Unlock()
		m.deliver(out)
		return nil
	}

	if s.started {
		m.mu.Unlock()
		return fmt.Errorf("join %s: %w", sessionID, ErrSessionStarted)
	}

	s.add(player)
	out.add(mapEvent(s.id, s.dmap), player)
	out.add(noticeEvent(s.id, player.Name()+" joined"), s.except(player.ID())...)
	m.mu.Unlock()

	m.log.Info("player joined session",
		zap.Stringer("session", sessionID),
		zap.String("player", player.Name()))

	m.deliver(out)
	return nil
}

// Ready records a member's readiness and starts the session once every
// member is ready. A session starts at most once.
func (m *Manager) Ready(player Member, sessionID uuid.UUID, value bool) error {
	var out outbox

	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("ready %s: %w", sessionID, ErrSessionNotFound)
	}
	if !s.has(player.ID()) {
		m.mu.Unlock()
		return fmt.Errorf("ready %s: %w", sessionID, ErrNotMember)
	}

	s.ready[player.ID()] = value

	message := player.Name() + " is ready"
	if !value {
		message = player.Name() + " is not ready"
	}
	members := s.snapshot()
	out.add(noticeEvent(s.id, message), members...)

	started := false
	if !s.started && s.allReady() {
		s.started = true
		started = true
		out.add(startEvent(s.id), members...)
	}
	m.mu.Unlock()

	if started {
		m.log.Info("session started", zap.Stringer("session", sessionID), zap.Int("players", len(members)))
	}

	m.deliver(out)
	return nil
}

// Leave removes player from a session. Leaving a session one is not part of
// is a no-op; the last member to leave deletes the session.
func (m *Manager) Leave(player Member, sessionID uuid.UUID) error {
	var out outbox

	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("leave %s: %w", sessionID, ErrSessionNotFound)
	}
	m.leaveLocked(s, player, &out)
	m.mu.Unlock()

	m.deliver(out)
	return nil
}

// RemovePlayer takes a disconnected player out of every session it belongs
// to and returns how many sessions it left. Safe to call more than once.
func (m *Manager) RemovePlayer(player Member) int {
	var out outbox

	m.mu.Lock()
	left := 0
	for _, id := range slices.Clone(m.order) {
		if m.leaveLocked(m.sessions[id], player, &out) {
			left++
		}
	}
	m.mu.Unlock()

	m.deliver(out)
	return left
}

func (m *Manager) leaveLocked(s *Session, player Member, out *outbox) bool {
	if !s.remove(player.ID()) {
		return false
	}

	if len(s.members) == 0 {
		delete(m.sessions, s.id)
		m.order = slices.DeleteFunc(m.order, func(id uuid.UUID) bool { return id == s.id })
		m.log.Info("session closed", zap.Stringer("session", s.id))
		return true
	}

	out.add(noticeEvent(s.id, player.Name()+" left"), s.snapshot()...)
	m.log.Info("player left session",
		zap.Stringer("session", s.id),
		zap.String("player", player.Name()))
	return true
}

// PlayerIntent forwards an action into the session's rules and broadcasts
// the resolution, if any, to all members.
func (m *Manager) PlayerIntent(ctx context.Context, player Member, sessionID uuid.UUID, action any) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("intent %s: %w", sessionID, ErrSessionNotFound)
	}
	if !s.has(player.ID()) {
		m.mu.Unlock()
		return fmt.Errorf("intent %s: %w", sessionID, ErrNotMember)
	}
	info := s.info()
	members := s.snapshot()
	m.mu.Unlock()

	result, err := m.rules.Resolve(ctx, info, player, action)
	if err != nil {
		return fmt.Errorf("resolve intent in %s: %w", sessionID, err)
	}
	if result == nil {
		return nil
	}

	var out outbox
	out.add(resolveEvent(sessionID, result), members...)
	m.deliver(out)
	return nil
}

// deliver sends outside the lock. A failed send closes that member's
// connection, whose disconnect path cleans it up; nothing propagates here.
func (m *Manager) deliver(out outbox) {
	for _, d := range out {
		if err := d.to.Send(d.ev); err != nil {
			m.log.Debug("dropping event for unreachable player",
				zap.String("player", d.to.Name()),
				zap.String("target", d.ev.Target),
				zap.String("verb", d.ev.Verb),
				zap.Error(err))
		}
	}
}
