// Package identity carries the authenticated caller through context.Context
// so services never read cookies, headers or fiber locals directly.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCitizen   Role = "CITIZEN"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

var ErrNoCaller = errors.New("no authenticated caller in context")

type Caller struct {
	UserId uuid.UUID
	Phone  string
	Role   Role
}

// IsStaff reports whether the caller may triage any report.
func (c Caller) IsStaff() bool {
	return c.Role == RoleAdmin || c.Role == RoleModerator
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// MustCaller returns the caller or ErrNoCaller.
func MustCaller(ctx context.Context) (Caller, error) {
	c, ok := FromContext(ctx)
	if !ok || c.UserId == uuid.Nil {
		return Caller{}, ErrNoCaller
	}
	return c, nil
}
