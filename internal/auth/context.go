package auth

import "context"

type contextKey struct{}

// AuthContext identifies the caller of a request. HouseID is empty until the
// session has a house the user still belongs to.
type AuthContext struct {
	UserID    string
	HouseID   string
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, _ := FromContext(ctx)
	return ac.UserID
}

func HouseID(ctx context.Context) string {
	ac, _ := FromContext(ctx)
	return ac.HouseID
}

func SessionID(ctx context.Context) int64 {
	ac, _ := FromContext(ctx)
	return ac.SessionID
}
