package middleware

import (
	"context"

	"github.com/baharkarakas/wallet-ledger/internal/lifecycle"
)

type userKey struct{}

// UserCtx is the authenticated caller as read from the access token.
type UserCtx struct {
	UserID string
	Role   string
}

func (u UserCtx) Anonymous() bool { return u.UserID == "" }

// Actor is the caller in the form the services authorize against.
func (u UserCtx) Actor() lifecycle.Actor {
	return lifecycle.Actor{UserID: u.UserID, Role: u.Role}
}

func WithUser(ctx context.Context, u UserCtx) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromCtx returns the zero UserCtx when Auth did not run.
func FromCtx(ctx context.Context) UserCtx {
	u, _ := ctx.Value(userKey{}).(UserCtx)
	return u
}
