// Package context carries the caller, the running job and the trace ids
// through a request.
package context

import (
	"context"
	"slices"
)

// UserContext is the authenticated caller, as decoded from the access token.
type UserContext struct {
	UserID      string
	Email       string
	Roles       []string
	Permissions []string
	IsAdmin     bool
}

// HasPermission reports whether the user may perform "<module>:<action>".
// Admins hold every permission.
func (u *UserContext) HasPermission(permission string) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin || slices.Contains(u.Permissions, permission)
}

type userKey struct{}

// WithUser stores the caller in ctx.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the caller, or nil for anonymous and background work.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(userKey{}).(*UserContext)
	return u
}

// GetUserID returns the caller's id or "".
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

type jobKey struct{}

// WithJob marks ctx as running the named background job.
func WithJob(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, jobKey{}, name)
}

// Actor names who performs the work in ctx: the caller's id, or "job:<name>"
// inside a background job. Documents, stock movements and audit rows record it.
func Actor(ctx context.Context) string {
	if uid := GetUserID(ctx); uid != "" {
		return uid
	}
	if job, _ := ctx.Value(jobKey{}).(string); job != "" {
		return "job:" + job
	}
	return ""
}
