package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KDT2006/roguelobby/internal/config"
	"github.com/KDT2006/roguelobby/internal/dispatch"
	"github.com/KDT2006/roguelobby/internal/dungeon"
	"github.com/KDT2006/roguelobby/internal/lobby"
	"github.com/KDT2006/roguelobby/internal/protocol"
	"github.com/KDT2006/roguelobby/internal/transport"
)

var ErrServerClosed = errors.New("server closed")

type Server struct {
	cfg      config.Server
	log      *zap.Logger
	lobby    *lobby.Manager
	registry *dispatch.Registry[*Player]

	mu      sync.Mutex
	players map[uuid.UUID]*Player
	ln      net.Listener
	closing bool
	wg      sync.WaitGroup // one per connection goroutine
}

type Option func(*serverOptions)

type serverOptions struct {
	rules lobby.Rules
}

// WithRules installs the game rules that resolve player intents.
func WithRules(r lobby.Rules) Option {
	return func(o *serverOptions) {
		o.rules = r
	}
}

func New(cfg config.Server, catalog *dungeon.Catalog, log *zap.Logger, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	lobbyOpts := []lobby.Option{lobby.WithLogger(log.Named("lobby"))}
	if o.rules != nil {
		lobbyOpts = append(lobbyOpts, lobby.WithRules(o.rules))
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		lobby:    lobby.NewManager(catalog, lobbyOpts...),
		registry: dispatch.NewRegistry[*Player](),
		players:  make(map[uuid.UUID]*Player),
	}
	s.registerHandlers()

	return s
}

// ListenAndServe listens on the configured bind address and serves until ctx
// is cancelled or Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.BindAddress)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln. It returns nil after a clean shutdown and
// waits for every connection goroutine before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, s.Shutdown)
	defer stop()

	s.log.Info("server is listening", zap.String("address", ln.Addr().String()))

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.isClosing() {
				s.log.Info("listener closed")
				s.wg.Wait()
				return nil
			}

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff = min(2*backoff, time.Second)
			}
			s.log.Warn("failed to accept connection", zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, nc net.Conn) {
	p := newPlayer()
	p.conn = transport.New(nc, transport.HandlerFuncs{
		Message: func(_ *transport.Conn, ev protocol.Event) {
			s.handleEvent(ctx, p, ev)
		},
		Disconnect: func(_ *transport.Conn, err error) {
			s.unregisterPlayer(p, err)
		},
	}, transport.Options{
		MaxFrameSize: s.cfg.MaxFrameSize,
		WriteTimeout: s.cfg.WriteTimeout,
		MaxMalformed: s.cfg.MaxMalformed,
		Logger:       s.log.With(zap.Stringer("player", p.id)),
	})

	// The player is on the roster before its first event can arrive.
	if !s.registerPlayer(p) {
		nc.Close()
		return
	}

	s.log.Info("accepted connection",
		zap.String("remote", nc.RemoteAddr().String()),
		zap.Stringer("player", p.id))

	go func() {
		defer s.wg.Done()
		p.conn.Listen(ctx)
	}()
}

func (s *Server) registerPlayer(p *Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return false
	}
	s.players[p.id] = p
	s.wg.Add(1)
	return true
}

func (s *Server) unregisterPlayer(p *Player, cause error) {
	s.mu.Lock()
	_, ok := s.players[p.id]
	delete(s.players, p.id)
	closing := s.closing
	s.mu.Unlock()

	if !ok {
		return
	}

	left := s.lobby.RemovePlayer(p)
	s.log.Info("unregistered player",
		zap.Stringer("player", p.id),
		zap.String("name", p.Name()),
		zap.Int("sessions_left", left),
		zap.Error(cause))

	if !closing {
		s.Broadcast(chatEvent("disconnected", p.Name()))
	}
}

func (s *Server) handleEvent(ctx context.Context, p *Player, ev protocol.Event) {
	err := s.registry.Dispatch(ctx, p, ev)
	switch {
	case err == nil:
	case errors.Is(err, dispatch.ErrUnknownTarget), errors.Is(err, dispatch.ErrUnsupportedVerb):
		s.log.Warn("dropping event", zap.Stringer("player", p.id), zap.Error(err))
	default:
		s.log.Debug("event failed",
			zap.Stringer("player", p.id),
			zap.String("target", ev.Target),
			zap.String("verb", ev.Verb),
			zap.Error(err))
	}
}

// Broadcast sends ev to every connected player. A recipient that cannot be
// written to is closed and cleans itself up on its own goroutine.
func (s *Server) Broadcast(ev protocol.Event) {
	for _, p := range s.roster() {
		if err := p.Send(ev); err != nil {
			s.log.Debug("broadcast skipped player", zap.Stringer("player", p.id), zap.Error(err))
		}
	}
}

func (s *Server) roster() []*Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	return players
}

// Players returns the current roster ordered by name.
func (s *Server) Players() []PlayerInfo {
	roster := s.roster()
	infos := make([]PlayerInfo, 0, len(roster))
	for _, p := range roster {
		infos = append(infos, p.info())
	}
	slices.SortFunc(infos, func(a, b PlayerInfo) int {
		if a.Name == b.Name {
			return slices.Compare(a.ID[:], b.ID[:])
		}
		if a.Name < b.Name {
			return -1
		}
		return 1
	})
	return infos
}

func (s *Server) Lobby() *lobby.Manager {
	return s.lobby
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Shutdown stops accepting, closes every connection and waits for their
// goroutines to finish. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.closing = true
	ln := s.ln
	players := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	s.mu.Unlock()

	s.log.Info("server shutting down", zap.Int("players", len(players)))

	if ln != nil {
		ln.Close()
	}
	for _, p := range players {
		p.conn.Close()
	}
	s.wg.Wait()
}
