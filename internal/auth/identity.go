package auth

import "context"

// Identity is the caller of a request: either Authenticated or Anonymous.
type Identity interface {
	isIdentity()
}

// Authenticated carries a validated session and its owner.
type Authenticated struct {
	User    User
	Session Session
}

// Anonymous is a caller without a valid session.
type Anonymous struct{}

func (Authenticated) isIdentity() {}
func (Anonymous) isIdentity()     {}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored by the auth middleware, or Anonymous.
func IdentityFrom(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey).(Identity); ok && id != nil {
		return id
	}
	return Anonymous{}
}

// CurrentUser returns the authenticated user in ctx, if any.
func CurrentUser(ctx context.Context) (User, Session, bool) {
	a, ok := IdentityFrom(ctx).(Authenticated)
	if !ok {
		return User{}, Session{}, false
	}
	return a.User, a.Session, true
}
