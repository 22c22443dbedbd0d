package lobby

import "context"

// Rules resolves player intents for a running session. A nil result means
// there is nothing to broadcast.
type Rules interface {
	Resolve(ctx context.Context, session SessionInfo, player Member, action any) (map[string]any, error)
}

type RulesFunc func(ctx context.Context, session SessionInfo, player Member, action any) (map[string]any, error)

func (f RulesFunc) Resolve(ctx context.Context, session SessionInfo, player Member, action any) (map[string]any, error) {
	return f(ctx, session, player, action)
}

// NopRules accepts every intent and resolves nothing.
type NopRules struct{}

func (NopRules) Resolve(context.Context, SessionInfo, Member, any) (map[string]any, error) {
	return nil, nil
}
