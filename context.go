package oidcrp

import (
	"context"

	"github.com/cccteam/oidcrp/correlation"
)

type ctxKey int

const (
	clientKey ctxKey = iota
	sessionKey
)

// WithClient attaches the Client for the current request.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

// ClientFromContext returns the Client attached with WithClient.
func ClientFromContext(ctx context.Context) (Client, bool) {
	c, ok := ctx.Value(clientKey).(Client)

	return c, ok && c != nil
}

// WithSession attaches the user session for the current request.
func WithSession(ctx context.Context, s correlation.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session attached with WithSession.
func SessionFromContext(ctx context.Context) (correlation.Session, bool) {
	s, ok := ctx.Value(sessionKey).(correlation.Session)

	return s, ok && s != nil
}
