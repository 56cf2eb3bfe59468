package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

// User is the authenticated caller as resolved by the upstream edge.
// Authentication itself happens outside this service.
type User struct {
	ID    snowflake.ID
	Email string
}

// Provider resolves the current user from an incoming request.
// A nil user with a nil error means the request is anonymous.
type Provider interface {
	CurrentUser(r *http.Request) (*User, error)
}

type userContextKey struct{}

// WithUser stores the resolved user in the context.
func WithUser(ctx context.Context, u *User) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext returns the user from context, if set.
func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(userContextKey{}).(*User)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}

// headerProvider trusts identity headers injected by the upstream proxy.
type headerProvider struct{}

func NewHeaderProvider() Provider {
	return headerProvider{}
}

func (headerProvider) CurrentUser(r *http.Request) (*User, error) {
	rawID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if rawID == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(rawID)
	if err != nil {
		return nil, nil
	}
	return &User{
		ID:    id,
		Email: strings.TrimSpace(r.Header.Get("X-User-Email")),
	}, nil
}

var Module = fx.Module("identity",
	fx.Provide(NewHeaderProvider),
)
