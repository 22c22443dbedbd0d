package lobby

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotMember       = errors.New("player is not in the session")
	ErrSessionStarted  = errors.New("session has already started")
	ErrUnknownDungeon  = errors.New("unknown dungeon")
	ErrInvalidParams   = errors.New("invalid parameters")
)
