package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/KDT2006/roguelobby/internal/protocol"
)

// display prints server events to the terminal.
type display struct {
	mu sync.Mutex

	serverColor *color.Color
	chatColor   *color.Color
	playerColor *color.Color
	lobbyColor  *color.Color
	startColor  *color.Color
	mapColor    *color.Color
	errorColor  *color.Color
}

func newDisplay() *display {
	return &display{
		serverColor: color.New(color.FgCyan, color.Bold),
		chatColor:   color.New(color.FgWhite),
		playerColor: color.New(color.FgCyan),
		lobbyColor:  color.New(color.FgYellow),
		startColor:  color.New(color.FgGreen, color.Bold),
		mapColor:    color.New(color.FgHiBlack),
		errorColor:  color.New(color.FgRed, color.Bold),
	}
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func (d *display) status(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.serverColor.Printf("[%s] %s\n", timestamp(), fmt.Sprintf(format, args...))
}

func (d *display) errorf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errorColor.Printf("[%s] [ERROR] %s\n", timestamp(), fmt.Sprintf(format, args...))
}

func (d *display) OnConnectionEvent(ev protocol.Event) {
	switch ev.Target {
	case protocol.TargetGlobalChat:
		msg, _ := ev.String(protocol.ParamMessage)
		who, _ := ev.String(protocol.ParamPlayer)
		d.mu.Lock()
		fmt.Printf("[%s] ", timestamp())
		d.playerColor.Printf("%s: ", who)
		d.chatColor.Println(msg)
		d.mu.Unlock()

	case protocol.TargetLobbies:
		d.lobbyEvent(ev)

	case protocol.TargetMap:
		id, _ := ev.String(protocol.ParamID)
		raw, _ := ev.Param(protocol.ParamTiles)
		d.mu.Lock()
		d.lobbyColor.Printf("[%s] [MAP] session %s\n", timestamp(), id)
		if rows, ok := raw.([]any); ok {
			for _, row := range rows {
				cells, _ := row.([]any)
				var b strings.Builder
				for _, cell := range cells {
					s, _ := cell.(string)
					b.WriteString(s)
				}
				d.mapColor.Println(b.String())
			}
		}
		d.mu.Unlock()

	case protocol.TargetServer:
		msg, _ := ev.String(protocol.ParamMessage)
		d.errorf("%s", msg)

	default:
		d.status("%s/%s %v", ev.Target, ev.Verb, ev.Params())
	}
}

func (d *display) lobbyEvent(ev protocol.Event) {
	id, _ := ev.String(protocol.ParamID)

	switch ev.Verb {
	case protocol.VerbMessage:
		msg, _ := ev.String(protocol.ParamMessage)
		d.mu.Lock()
		d.lobbyColor.Printf("[%s] [LOBBY %s] %s\n", timestamp(), shortID(id), msg)
		d.mu.Unlock()

	case protocol.VerbStart:
		d.mu.Lock()
		d.startColor.Printf("[%s] [LOBBY %s] all players ready, starting\n", timestamp(), shortID(id))
		d.mu.Unlock()

	case protocol.VerbError:
		msg, _ := ev.String(protocol.ParamError)
		d.errorf("%s", msg)

	case protocol.VerbResponse:
		resp, _ := ev.String(protocol.ParamResponse)
		if resp == protocol.VerbHost {
			raw, _ := ev.Param(protocol.ParamSession)
			d.printSessions([]any{raw}, "hosted")
			return
		}
		raw, _ := ev.Param(protocol.ParamSessions)
		list, _ := raw.([]any)
		if len(list) == 0 {
			d.status("no sessions")
			return
		}
		d.printSessions(list, "session")
	}
}

func (d *display) printSessions(list []any, label string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, item := range list {
		s, _ := item.(map[string]any)
		d.lobbyColor.Printf("[%s] %s %v dungeon=%v players=%v ready=%v started=%v\n",
			timestamp(), label,
			s[protocol.ParamID], s[protocol.ParamDungeonID], s["players"], s["ready"], s["started"])
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
