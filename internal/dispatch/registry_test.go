package dispatch

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/KDT2006/roguelobby/internal/protocol"
)

type counter struct {
	pings int
	from  []string
}

func (c *counter) Handle(_ context.Context, from string, ev protocol.Event) error {
	switch ev.Verb {
	case "ping":
		c.pings++
		c.from = append(c.from, from)
		return nil
	default:
		return Unsupported(ev)
	}
}

func TestDispatchRoutesByTarget(t *testing.T) {
	r := NewRegistry[string]()
	lobby, chat := &counter{}, &counter{}

	if err := r.Register(protocol.TargetLobbies, lobby); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(protocol.TargetGlobalChat, chat); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := r.Dispatch(ctx, "alice", protocol.NewEvent(protocol.TargetLobbies, "ping", nil)); err != nil {
		t.Fatal(err)
	}
	if err := r.Dispatch(ctx, "bob", protocol.NewEvent(protocol.TargetLobbies, "ping", nil)); err != nil {
		t.Fatal(err)
	}

	if lobby.pings != 2 || chat.pings != 0 {
		t.Fatalf("lobby=%d chat=%d", lobby.pings, chat.pings)
	}
	if !slices.Equal(lobby.from, []string{"alice", "bob"}) {
		t.Fatalf("senders = %v", lobby.from)
	}
}

func TestDispatchUnknownTarget(t *testing.T) {
	r := NewRegistry[string]()

	err := r.Dispatch(context.Background(), "x", protocol.NewEvent("NOPE", "ping", nil))
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
}

func TestDispatchUnsupportedVerb(t *testing.T) {
	r := NewRegistry[string]()
	r.Register(protocol.TargetLobbies, &counter{})

	err := r.Dispatch(context.Background(), "x", protocol.NewEvent(protocol.TargetLobbies, "explode", nil))
	if !errors.Is(err, ErrUnsupportedVerb) {
		t.Fatalf("expected ErrUnsupportedVerb, got %v", err)
	}
}

func TestRegisterDuplicateAndUnregister(t *testing.T) {
	r := NewRegistry[string]()

	if err := r.Register("A", &counter{}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("A", &counter{}); !errors.Is(err, ErrDuplicateTarget) {
		t.Fatalf("expected ErrDuplicateTarget, got %v", err)
	}

	r.Register("B", &counter{})
	if got := r.Targets(); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("targets = %v", got)
	}

	if !r.Unregister("A") {
		t.Fatal("expected A to be removed")
	}
	if r.Unregister("A") {
		t.Fatal("second unregister should report false")
	}

	err := r.Dispatch(context.Background(), "x", protocol.NewEvent("A", "ping", nil))
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget after unregister, got %v", err)
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	r := NewRegistry[string]()
	r.Register("BOOM", HandlerFunc[string](func(context.Context, string, protocol.Event) error {
		panic("kaboom")
	}))

	err := r.Dispatch(context.Background(), "x", protocol.NewEvent("BOOM", "go", nil))
	if err == nil {
		t.Fatal("expected error from panicking handler")
	}
}
