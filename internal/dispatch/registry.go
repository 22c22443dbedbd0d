// Package dispatch routes decoded events to the handler registered for their
// target. Handlers match the verb with a closed switch and report anything
// else through Unsupported.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/KDT2006/roguelobby/internal/protocol"
)

var (
	ErrUnknownTarget   = errors.New("unknown target")
	ErrUnsupportedVerb = errors.New("unsupported verb")
	ErrDuplicateTarget = errors.New("target already registered")
)

// Handler handles every event addressed to one target. S identifies who sent
// the event, e.g. the server-side player record.
type Handler[S any] interface {
	Handle(ctx context.Context, from S, ev protocol.Event) error
}

type HandlerFunc[S any] func(ctx context.Context, from S, ev protocol.Event) error

func (f HandlerFunc[S]) Handle(ctx context.Context, from S, ev protocol.Event) error {
	return f(ctx, from, ev)
}

type Registry[S any] struct {
	mu       sync.RWMutex
	handlers map[string]Handler[S]
}

func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{
		handlers: make(map[string]Handler[S]),
	}
}

func (r *Registry[S]) Register(target string, h Handler[S]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[target]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTarget, target)
	}
	r.handlers[target] = h
	return nil
}

// Unregister removes the handler for target and reports whether one existed.
func (r *Registry[S]) Unregister(target string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.handlers[target]
	delete(r.handlers, target)
	return ok
}

// Targets returns the registered target names in sorted order.
func (r *Registry[S]) Targets() []string {
	r.mu.RLock()
	targets := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		targets = append(targets, t)
	}
	r.mu.RUnlock()

	slices.Sort(targets)
	return targets
}

// Dispatch hands ev to the handler registered for ev.Target. The handler runs
// outside the registry lock; a panic inside it is returned as an error.
func (r *Registry[S]) Dispatch(ctx context.Context, from S, ev protocol.Event) (err error) {
	r.mu.RLock()
	h, ok := r.handlers[ev.Target]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTarget, ev.Target)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler for %s/%s panicked: %v", ev.Target, ev.Verb, rec)
		}
	}()

	return h.Handle(ctx, from, ev)
}

// Unsupported is returned by handlers from the default arm of their verb switch.
func Unsupported(ev protocol.Event) error {
	return fmt.Errorf("%w: %s/%q", ErrUnsupportedVerb, ev.Target, ev.Verb)
}
