package lobby

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/KDT2006/roguelobby/internal/dispatch"
	"github.com/KDT2006/roguelobby/internal/protocol"
)

func lobbyEvent(verb string, params map[string]any) protocol.Event {
	return protocol.NewEvent(protocol.TargetLobbies, verb, params)
}

func lastEvent(t *testing.T, f *fakeMember) protocol.Event {
	t.Helper()
	events := f.received()
	if len(events) == 0 {
		t.Fatalf("%s received nothing", f.name)
	}
	return events[len(events)-1]
}

func TestHandleHostRepliesWithSession(t *testing.T) {
	m := newTestManager(t)
	a := newMember("alice")
	ctx := context.Background()

	err := m.HandleEvent(ctx, a, lobbyEvent(protocol.VerbHost, map[string]any{protocol.ParamDungeonID: "D1"}))
	if err != nil {
		t.Fatalf("host: %v", err)
	}

	ev := lastEvent(t, a)
	if ev.Verb != protocol.VerbResponse {
		t.Fatalf("reply verb = %q", ev.Verb)
	}
	if resp, _ := ev.String(protocol.ParamResponse); resp != protocol.VerbHost {
		t.Errorf("response = %q", resp)
	}
	raw, _ := ev.Param(protocol.ParamSession)
	session, ok := raw.(map[string]any)
	if !ok {
		t.Fatalf("session param is %T", raw)
	}
	id, err := uuid.Parse(session[protocol.ParamID].(string))
	if err != nil {
		t.Fatalf("session id: %v", err)
	}
	if _, ok := m.Session(id); !ok {
		t.Errorf("replied id %s is not registered", id)
	}
}

func TestHandleGetAndGetAll(t *testing.T) {
	m := newTestManager(t)
	a := newMember("alice")
	ctx := context.Background()

	m.Host(a, "D1")
	m.Host(a, "crypt")

	cases := []struct {
		name string
		ev   protocol.Event
		want int
	}{
		{"get matching", lobbyEvent(protocol.VerbGet, map[string]any{protocol.ParamDungeonID: "crypt"}), 1},
		{"get none", lobbyEvent(protocol.VerbGet, map[string]any{protocol.ParamDungeonID: "cave"}), 0},
		{"get all", lobbyEvent(protocol.VerbGetAll, nil), 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a.reset()
			if err := m.HandleEvent(ctx, a, tc.ev); err != nil {
				t.Fatalf("HandleEvent: %v", err)
			}
			ev := lastEvent(t, a)
			raw, _ := ev.Param(protocol.ParamSessions)
			list, ok := raw.([]any)
			if !ok {
				t.Fatalf("sessions param is %T", raw)
			}
			if len(list) != tc.want {
				t.Errorf("got %d sessions, want %d", len(list), tc.want)
			}
		})
	}
}

func TestHandleRequestErrors(t *testing.T) {
	m := newTestManager(t)
	a, b := newMember("alice"), newMember("bob")
	ctx := context.Background()
	info, _ := m.Host(a, "D1")
	missing := uuid.NewString()

	cases := []struct {
		name   string
		ev     protocol.Event
		want   error
		echoID string
	}{
		{"join unknown", lobbyEvent(protocol.VerbJoin, map[string]any{protocol.ParamID: missing}), ErrSessionNotFound, missing},
		{"join garbage id", lobbyEvent(protocol.VerbJoin, map[string]any{protocol.ParamID: "not-a-uuid"}), ErrSessionNotFound, "not-a-uuid"},
		{"join no id", lobbyEvent(protocol.VerbJoin, nil), ErrInvalidParams, ""},
		{"ready outsider", lobbyEvent(protocol.VerbReady, map[string]any{protocol.ParamID: info.ID.String(), protocol.ParamValue: true}), ErrNotMember, info.ID.String()},
		{"ready bad value", lobbyEvent(protocol.VerbReady, map[string]any{protocol.ParamID: info.ID.String(), protocol.ParamValue: "maybe"}), ErrInvalidParams, info.ID.String()},
		{"leave unknown", lobbyEvent(protocol.VerbLeave, map[string]any{protocol.ParamID: missing}), ErrSessionNotFound, missing},
		{"host unknown dungeon", lobbyEvent(protocol.VerbHost, map[string]any{protocol.ParamDungeonID: "nowhere"}), ErrUnknownDungeon, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b.reset()
			err := m.HandleEvent(ctx, b, tc.ev)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}

			ev := lastEvent(t, b)
			if ev.Verb != protocol.VerbError {
				t.Fatalf("reply verb = %q", ev.Verb)
			}
			id, hasID := ev.String(protocol.ParamID)
			if tc.echoID == "" && hasID {
				t.Errorf("unexpected id %q in error reply", id)
			}
			if tc.echoID != "" && id != tc.echoID {
				t.Errorf("echoed id = %q, want %q", id, tc.echoID)
			}
		})
	}

	if got := m.GetAll(); len(got) != 1 || len(got[0].Players) != 1 {
		t.Errorf("failed requests mutated the registry: %+v", got)
	}
}

func TestHandleReadyValues(t *testing.T) {
	m := newTestManager(t)
	a, b := newMember("alice"), newMember("bob")
	ctx := context.Background()
	info, _ := m.Host(a, "D1")
	m.Join(b, info.ID)

	id := info.ID.String()
	m.HandleEvent(ctx, a, lobbyEvent(protocol.VerbReady, map[string]any{protocol.ParamID: id, protocol.ParamValue: "True"}))
	m.HandleEvent(ctx, b, lobbyEvent(protocol.VerbReady, map[string]any{protocol.ParamID: id, protocol.ParamValue: false}))

	s, _ := m.Session(info.ID)
	if s.Ready != 1 || s.Started {
		t.Fatalf("after mixed readiness: %+v", s)
	}

	// An omitted value means ready.
	if err := m.HandleEvent(ctx, b, lobbyEvent(protocol.VerbReady, map[string]any{protocol.ParamID: id})); err != nil {
		t.Fatalf("ready without value: %v", err)
	}
	if s, _ := m.Session(info.ID); !s.Started {
		t.Errorf("session did not start: %+v", s)
	}
}

func TestHandleJoinAndLeave(t *testing.T) {
	m := newTestManager(t)
	a, b := newMember("alice"), newMember("bob")
	ctx := context.Background()
	info, _ := m.Host(a, "D1")
	params := map[string]any{protocol.ParamID: info.ID.String()}

	if err := m.HandleEvent(ctx, b, lobbyEvent(protocol.VerbJoin, params)); err != nil {
		t.Fatalf("join: %v", err)
	}
	if ev := lastEvent(t, b); ev.Target != protocol.TargetMap {
		t.Errorf("joiner got %s/%s", ev.Target, ev.Verb)
	}

	if err := m.HandleEvent(ctx, b, lobbyEvent(protocol.VerbLeave, params)); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if ids := m.SessionsFor(b.ID()); len(ids) != 0 {
		t.Errorf("bob still in %v", ids)
	}
}

func TestHandleUnsupportedVerb(t *testing.T) {
	m := newTestManager(t)
	a := newMember("alice")

	err := m.HandleEvent(context.Background(), a, lobbyEvent("explode", nil))
	if !errors.Is(err, dispatch.ErrUnsupportedVerb) {
		t.Fatalf("got %v, want ErrUnsupportedVerb", err)
	}
	if len(a.received()) != 0 {
		t.Errorf("unsupported verb produced a reply")
	}

	err = m.HandleIntent(context.Background(), a, protocol.NewEvent(protocol.TargetPlayerIntent, "teleport", nil))
	if !errors.Is(err, dispatch.ErrUnsupportedVerb) {
		t.Fatalf("intent: got %v, want ErrUnsupportedVerb", err)
	}
}

func TestHandleIntent(t *testing.T) {
	rules := RulesFunc(func(_ context.Context, _ SessionInfo, _ Member, action any) (map[string]any, error) {
		return map[string]any{"echo": action}, nil
	})
	m := newTestManager(t, WithRules(rules))
	a := newMember("alice")
	info, _ := m.Host(a, "D1")

	for _, verb := range []string{"", protocol.VerbAct} {
		a.reset()
		ev := protocol.NewEvent(protocol.TargetPlayerIntent, verb, map[string]any{
			protocol.ParamID:     info.ID.String(),
			protocol.ParamAction: "dig",
		})
		if err := m.HandleIntent(context.Background(), a, ev); err != nil {
			t.Fatalf("verb %q: %v", verb, err)
		}
		if echo, _ := lastEvent(t, a).String("echo"); echo != "dig" {
			t.Errorf("verb %q: echo = %q", verb, echo)
		}
	}
}
