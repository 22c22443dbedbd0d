package protocol

import (
	"encoding/json"
	"maps"
	"strconv"
)

// Event is one unit of cross-network communication: a target, the verb to
// apply on it and its parameters. Events are values; the parameter map is
// copied on construction and never exposed for mutation.
type Event struct {
	Target string
	Verb   string
	params map[string]any
}

// NewEvent builds an Event. params may be nil.
func NewEvent(target, verb string, params map[string]any) Event {
	return Event{
		Target: target,
		Verb:   verb,
		params: maps.Clone(params),
	}
}

// Params returns a copy of the event parameters, never nil.
func (e Event) Params() map[string]any {
	if e.params == nil {
		return map[string]any{}
	}
	return maps.Clone(e.params)
}

// Param returns the raw value stored under key.
func (e Event) Param(key string) (any, bool) {
	v, ok := e.params[key]
	return v, ok
}

// String returns the string parameter under key.
func (e Event) String(key string) (string, bool) {
	v, ok := e.params[key].(string)
	return v, ok
}

// Bool returns the boolean parameter under key. Strings such as "true" or
// "False" are accepted as well, since older clients sent them that way.
func (e Event) Bool(key string) (bool, bool) {
	switch v := e.params[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return false, false
		}
		return n != 0, true
	}
	return false, false
}
