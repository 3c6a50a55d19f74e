package auth

import "context"

// Actor is the normalized caller identity. Whatever shape the upstream role
// representation takes, middleware resolves it into a flat permission set
// before it reaches the usecases.
type Actor struct {
	UserID      string
	Role        string
	Permissions []string
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
