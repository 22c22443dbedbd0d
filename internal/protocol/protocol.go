package protocol

// Targets name the receiving side of an event.
const (
	// Client -> Server
	TargetPlayerConnect = "PLAYER_CONNECT"
	TargetPlayerIntent  = "PLAYER_INTENT"

	// Both directions
	TargetGlobalChat = "GLOBAL_CHAT"
	TargetLobbies    = "LOBBIES"

	// Server -> Client
	TargetMap           = "MAP"
	TargetPlayerResolve = "PLAYER_RESOLVE"

	// Client-local, never on the wire
	TargetServer = "SERVER"
)

// Lobby verbs sent by clients.
const (
	VerbHost   = "host"
	VerbGet    = "get"
	VerbGetAll = "get-all"
	VerbJoin   = "join"
	VerbReady  = "ready"
	VerbLeave  = "leave"
)

// Verbs used by the remaining targets.
const (
	VerbConnect    = "connect"
	VerbSend       = "send"
	VerbAct        = "act"
	VerbMessage    = "message"
	VerbResponse   = "response"
	VerbStart      = "start"
	VerbError      = "error"
	VerbLoad       = "load"
	VerbResolve    = "resolve"
	VerbDisconnect = "disconnect"
)

// Parameter keys shared by client and server.
const (
	ParamName      = "name"
	ParamMessage   = "message"
	ParamPlayer    = "player"
	ParamDungeonID = "dungeon_id"
	ParamID        = "id"
	ParamValue     = "value"
	ParamAction    = "action"
	ParamResponse  = "response"
	ParamSessions  = "sessions"
	ParamSession   = "session"
	ParamStart     = "start"
	ParamError     = "error"
	ParamTiles     = "tiles"
)
