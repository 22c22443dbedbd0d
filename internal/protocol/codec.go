package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Encode serializes an event as the JSON array [target, verb, params].
// Parameters go through encoding/json, so Decode returns them in their
// generic form: numbers as json.Number, slices as []any and objects as
// map[string]any. Payloads built from those types round-trip exactly.
func Encode(e Event) ([]byte, error) {
	params := e.params
	if params == nil {
		params = map[string]any{}
	}

	data, err := json.Marshal([]any{e.Target, e.Verb, params})
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", e.Target, e.Verb, err)
	}
	return data, nil
}

// Decode is the inverse of Encode. Numbers are kept as json.Number rather
// than float64. Any structural problem is reported as ErrMalformedEvent.
func Decode(data []byte) (Event, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields []any
	if err := dec.Decode(&fields); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Event{}, fmt.Errorf("%w: trailing data after event", ErrMalformedEvent)
	}

	if len(fields) != 3 {
		return Event{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedEvent, len(fields))
	}

	target, ok := fields[0].(string)
	if !ok || target == "" {
		return Event{}, fmt.Errorf("%w: target must be a non-empty string", ErrMalformedEvent)
	}

	verb, ok := fields[1].(string)
	if !ok {
		return Event{}, fmt.Errorf("%w: verb must be a string", ErrMalformedEvent)
	}

	var params map[string]any
	switch p := fields[2].(type) {
	case nil:
	case map[string]any:
		params = p
	default:
		return Event{}, fmt.Errorf("%w: parameters must be an object", ErrMalformedEvent)
	}

	return Event{Target: target, Verb: verb, params: params}, nil
}
