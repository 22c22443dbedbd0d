package main

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/KDT2006/roguelobby/internal/client"
	"github.com/KDT2006/roguelobby/internal/protocol"
)

func main() {
	host := pflag.String("host", "localhost", "server host")
	port := pflag.IntP("port", "p", 7777, "server port")
	name := pflag.StringP("name", "n", "", "player name")
	pflag.Parse()

	display := newDisplay()
	c := client.New(client.Options{})
	c.AddEventListener(display)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := c.Connect(ctx, *host, *port)
	cancel()
	if err != nil {
		display.errorf("%v", err)
		os.Exit(1)
	}
	display.status("connected to %s:%d, type /help for commands", *host, *port)

	if *name != "" {
		send(c, display, protocol.TargetPlayerConnect, protocol.VerbConnect, map[string]any{protocol.ParamName: *name})
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !c.Connected() {
			display.errorf("not connected")
			os.Exit(1)
		}
		if quit := handleLine(c, display, line); quit {
			break
		}
	}

	c.Disconnect()
}

func handleLine(c *client.Client, d *display, line string) bool {
	if !strings.HasPrefix(line, "/") {
		send(c, d, protocol.TargetGlobalChat, protocol.VerbSend, map[string]any{protocol.ParamMessage: line})
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch cmd {
	case "/quit":
		return true
	case "/help":
		d.status("/name <name>  /host <dungeon>  /list [dungeon]  /join <id>")
		d.status("/ready <id>  /unready <id>  /leave <id>  /act <id> <action>  /quit")
	case "/name":
		send(c, d, protocol.TargetPlayerConnect, protocol.VerbConnect, map[string]any{protocol.ParamName: strings.Join(args, " ")})
	case "/host":
		send(c, d, protocol.TargetLobbies, protocol.VerbHost, map[string]any{protocol.ParamDungeonID: arg(0)})
	case "/list":
		if len(args) == 0 {
			send(c, d, protocol.TargetLobbies, protocol.VerbGetAll, nil)
		} else {
			send(c, d, protocol.TargetLobbies, protocol.VerbGet, map[string]any{protocol.ParamDungeonID: arg(0)})
		}
	case "/join":
		send(c, d, protocol.TargetLobbies, protocol.VerbJoin, map[string]any{protocol.ParamID: arg(0)})
	case "/ready", "/unready":
		send(c, d, protocol.TargetLobbies, protocol.VerbReady, map[string]any{
			protocol.ParamID:    arg(0),
			protocol.ParamValue: cmd == "/ready",
		})
	case "/leave":
		send(c, d, protocol.TargetLobbies, protocol.VerbLeave, map[string]any{protocol.ParamID: arg(0)})
	case "/act":
		send(c, d, protocol.TargetPlayerIntent, protocol.VerbAct, map[string]any{
			protocol.ParamID:     arg(0),
			protocol.ParamAction: strings.Join(args[min(1, len(args)):], " "),
		})
	default:
		d.errorf("unknown command %s", cmd)
	}
	return false
}

func send(c *client.Client, d *display, target, verb string, params map[string]any) {
	err := c.Send(protocol.NewEvent(target, verb, params))
	if errors.Is(err, client.ErrNotConnected) {
		d.errorf("not connected")
	} else if err != nil {
		d.errorf("send failed: %v", err)
	}
}
