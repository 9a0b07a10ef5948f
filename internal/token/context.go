package token

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxSubject ctxKey = iota
	ctxRoles
)

// WithClaims stores the verified principal in the request context.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	ctx = context.WithValue(ctx, ctxSubject, claims.Name)
	ctx = context.WithValue(ctx, ctxRoles, append([]string(nil), claims.Roles...))
	return ctx
}

// Subject returns the authenticated username from context.
func Subject(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxSubject).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("subject not in context")
}

// Roles returns the role claims from context.
func Roles(ctx context.Context) ([]string, error) {
	if rs, ok := ctx.Value(ctxRoles).([]string); ok {
		return rs, nil
	}
	return nil, errors.New("roles not in context")
}
