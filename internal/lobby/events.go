package lobby

import (
	"maps"

	"github.com/google/uuid"

	"github.com/KDT2006/roguelobby/internal/dungeon"
	"github.com/KDT2006/roguelobby/internal/protocol"
)

func noticeEvent(sessionID uuid.UUID, message string) protocol.Event {
	return protocol.NewEvent(protocol.TargetLobbies, protocol.VerbMessage, map[string]any{
		protocol.ParamMessage: message,
		protocol.ParamID:      sessionID.String(),
	})
}

func startEvent(sessionID uuid.UUID) protocol.Event {
	return protocol.NewEvent(protocol.TargetLobbies, protocol.VerbStart, map[string]any{
		protocol.ParamStart: true,
		protocol.ParamID:    sessionID.String(),
	})
}

func mapEvent(sessionID uuid.UUID, m dungeon.Map) protocol.Event {
	return protocol.NewEvent(protocol.TargetMap, protocol.VerbLoad, map[string]any{
		protocol.ParamID:        sessionID.String(),
		protocol.ParamDungeonID: m.DungeonID,
		protocol.ParamTiles:     m.Clone().Tiles,
	})
}

func resolveEvent(sessionID uuid.UUID, result map[string]any) protocol.Event {
	params := maps.Clone(result)
	if params == nil {
		params = make(map[string]any, 1)
	}
	params[protocol.ParamID] = sessionID.String()
	return protocol.NewEvent(protocol.TargetPlayerResolve, protocol.VerbResolve, params)
}

// ListResponse answers get and get-all requests.
func ListResponse(sessions []SessionInfo) protocol.Event {
	list := make([]any, len(sessions))
	for i, s := range sessions {
		list[i] = s.Params()
	}
	return protocol.NewEvent(protocol.TargetLobbies, protocol.VerbResponse, map[string]any{
		protocol.ParamResponse: protocol.VerbGet,
		protocol.ParamSessions: list,
	})
}

// HostedResponse tells a host which session it just created.
func HostedResponse(info SessionInfo) protocol.Event {
	return protocol.NewEvent(protocol.TargetLobbies, protocol.VerbResponse, map[string]any{
		protocol.ParamResponse: protocol.VerbHost,
		protocol.ParamSession:  info.Params(),
	})
}

// ErrorEvent reports a failed lobby request back to the requester. sessionID
// is echoed when the request named one.
func ErrorEvent(err error, sessionID string) protocol.Event {
	params := map[string]any{
		protocol.ParamResponse: protocol.VerbError,
		protocol.ParamError:    err.Error(),
	}
	if sessionID != "" {
		params[protocol.ParamID] = sessionID
	}
	return protocol.NewEvent(protocol.TargetLobbies, protocol.VerbError, params)
}
