package lobby

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/KDT2006/roguelobby/internal/dispatch"
	"github.com/KDT2006/roguelobby/internal/protocol"
)

// HandleEvent serves the LOBBIES target. Failures the requester can act on
// are answered with a LOBBIES/error event and returned for logging.
func (m *Manager) HandleEvent(ctx context.Context, from Member, ev protocol.Event) error {
	var err error
	switch ev.Verb {
	case protocol.VerbHost:
		var info SessionInfo
		dungeonID, _ := ev.String(protocol.ParamDungeonID)
		info, err = m.Host(from, dungeonID)
		if err == nil {
			return from.Send(HostedResponse(info))
		}

	case protocol.VerbGet:
		dungeonID, _ := ev.String(protocol.ParamDungeonID)
		return from.Send(ListResponse(m.Get(dungeonID)))

	case protocol.VerbGetAll:
		return from.Send(ListResponse(m.GetAll()))

	case protocol.VerbJoin:
		err = m.withSession(ev, func(id uuid.UUID) error {
			return m.Join(from, id)
		})

	case protocol.VerbReady:
		value := true
		if _, present := ev.Param(protocol.ParamValue); present {
			var ok bool
			if value, ok = ev.Bool(protocol.ParamValue); !ok {
				err = fmt.Errorf("%w: %s must be a boolean", ErrInvalidParams, protocol.ParamValue)
				break
			}
		}
		err = m.withSession(ev, func(id uuid.UUID) error {
			return m.Ready(from, id, value)
		})

	case protocol.VerbLeave:
		err = m.withSession(ev, func(id uuid.UUID) error {
			return m.Leave(from, id)
		})

	default:
		return dispatch.Unsupported(ev)
	}

	if err != nil {
		m.reply(from, ev, err)
	}
	return err
}

// HandleIntent serves the PLAYER_INTENT target.
func (m *Manager) HandleIntent(ctx context.Context, from Member, ev protocol.Event) error {
	switch ev.Verb {
	case "", protocol.VerbAct:
		action, _ := ev.Param(protocol.ParamAction)
		err := m.withSession(ev, func(id uuid.UUID) error {
			return m.PlayerIntent(ctx, from, id, action)
		})
		if err != nil {
			m.reply(from, ev, err)
		}
		return err

	default:
		return dispatch.Unsupported(ev)
	}
}

// withSession parses the id parameter. An id that is missing or not a uuid
// cannot name any session.
func (m *Manager) withSession(ev protocol.Event, fn func(id uuid.UUID) error) error {
	raw, ok := ev.String(protocol.ParamID)
	if !ok || raw == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidParams, protocol.ParamID)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s %q: %w", ev.Verb, raw, ErrSessionNotFound)
	}
	return fn(id)
}

func (m *Manager) reply(to Member, ev protocol.Event, err error) {
	if !isRequestError(err) {
		return
	}
	sessionID, _ := ev.String(protocol.ParamID)
	m.deliver(outbox{{to: to, ev: ErrorEvent(err, sessionID)}})
}

func isRequestError(err error) bool {
	for _, target := range []error{
		ErrSessionNotFound,
		ErrNotMember,
		ErrSessionStarted,
		ErrUnknownDungeon,
		ErrInvalidParams,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
