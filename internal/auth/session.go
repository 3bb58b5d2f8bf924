package auth

import "context"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Session is the authenticated caller. Operations take it explicitly instead of
// reading identity from ambient state.
type Session struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s Session) IsZero() bool {
	return s.UserID == ""
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || s.IsZero() {
		return Session{}, false
	}
	return s, true
}
