package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KDT2006/roguelobby/internal/dispatch"
	"github.com/KDT2006/roguelobby/internal/protocol"
)

var ErrEmptyMessage = errors.New("empty chat message")

func (s *Server) registerHandlers() {
	handlers := map[string]dispatch.Handler[*Player]{
		protocol.TargetPlayerConnect: dispatch.HandlerFunc[*Player](s.handleConnect),
		protocol.TargetGlobalChat:    dispatch.HandlerFunc[*Player](s.handleChat),
		protocol.TargetLobbies: dispatch.HandlerFunc[*Player](func(ctx context.Context, p *Player, ev protocol.Event) error {
			return s.lobby.HandleEvent(ctx, p, ev)
		}),
		protocol.TargetPlayerIntent: dispatch.HandlerFunc[*Player](func(ctx context.Context, p *Player, ev protocol.Event) error {
			return s.lobby.HandleIntent(ctx, p, ev)
		}),
	}

	for target, h := range handlers {
		if err := s.registry.Register(target, h); err != nil {
			panic(err)
		}
	}
}

// handleConnect names the player and announces it to everyone.
func (s *Server) handleConnect(_ context.Context, p *Player, ev protocol.Event) error {
	switch ev.Verb {
	case "", protocol.VerbConnect:
		if name, _ := ev.String(protocol.ParamName); strings.TrimSpace(name) != "" {
			p.setName(strings.TrimSpace(name))
		}
		s.Broadcast(chatEvent("connected", p.Name()))
		return nil
	default:
		return dispatch.Unsupported(ev)
	}
}

func (s *Server) handleChat(_ context.Context, p *Player, ev protocol.Event) error {
	switch ev.Verb {
	case "", protocol.VerbSend:
		message, _ := ev.String(protocol.ParamMessage)
		if message == "" {
			return fmt.Errorf("chat from %s: %w", p.id, ErrEmptyMessage)
		}
		s.Broadcast(chatEvent(message, p.Name()))
		return nil
	default:
		return dispatch.Unsupported(ev)
	}
}

func chatEvent(message, player string) protocol.Event {
	return protocol.NewEvent(protocol.TargetGlobalChat, protocol.VerbMessage, map[string]any{
		protocol.ParamMessage: message,
		protocol.ParamPlayer:  player,
	})
}
