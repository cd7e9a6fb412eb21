package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Define a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key used to store the authenticated session in the context
	SessionContextKey contextKey = "session"
)

// AuthenticateContext authenticates the token carried in the "authorization" metadata of an
// incoming gRPC call and returns a context holding the session.
func (g *SessionGuard) AuthenticateContext(ctx context.Context) (context.Context, error) {
	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			token = BearerToken(values[0])
		}
	}

	session, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return WithSession(ctx, session), nil
}

// BearerToken strips an optional "Bearer " scheme from an authorization value.
func BearerToken(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		return strings.TrimSpace(value[7:])
	}
	return value
}

func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*Session)
	return session, ok && session != nil
}
