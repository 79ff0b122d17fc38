package auth

import "context"

// User is the dashboard operator identity established by the simulated SSO login
type User struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// AnonymousSubject identifies requests served in no-auth mode
const AnonymousSubject = "anonymous"

// NewAnonymousUser returns the user attached to requests in no-auth mode
func NewAnonymousUser() *User {
	return &User{Name: "Anonymous", Email: AnonymousSubject}
}

// Subject returns the stable key used for per-user state such as submission guards
func (u *User) Subject() string {
	if u == nil || u.Email == "" {
		return AnonymousSubject
	}
	return u.Email
}

type ctxUserKey struct{}

// ContextWithUser binds user to ctx
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, user)
}

// UserFromContext returns the user bound to ctx, or nil
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(ctxUserKey{}).(*User)
	return user
}
