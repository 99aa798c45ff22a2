package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rmachado/storefront/internal/api"
	"github.com/rmachado/storefront/internal/domain"
)

// CookieName is the HTTP-only cookie carrying the session token.
const CookieName = "token"

type contextKey struct{}

var accountKey contextKey

// AccountFrom returns the account attached by Authenticate.
func AccountFrom(ctx context.Context) (*domain.Account, bool) {
	acct, ok := ctx.Value(accountKey).(*domain.Account)
	return acct, ok
}

// WithAccount attaches an account to the context the way Authenticate
// does.
func WithAccount(ctx context.Context, acct *domain.Account) context.Context {
	return context.WithValue(ctx, accountKey, acct)
}

// AccountGetter resolves the account a verified token refers to.
type AccountGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

type Middleware struct {
	tokens   *TokenManager
	accounts AccountGetter
	logger   *slog.Logger
	dev      bool
}

func NewMiddleware(tokens *TokenManager, accounts AccountGetter, logger *slog.Logger, dev bool) *Middleware {
	return &Middleware{
		tokens:   tokens,
		accounts: accounts,
		logger:   logger,
		dev:      dev,
	}
}

// Authenticate extracts the token from the cookie or Authorization header,
// verifies it, resolves the account, and attaches it to the request
// context. Requests without a valid token for an existing account get 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			api.Fail(w, m.logger, m.dev, fmt.Errorf("authentication required: %w", domain.ErrUnauthenticated))
			return
		}

		accountID, err := m.tokens.Verify(tokenStr)
		if err != nil {
			api.Fail(w, m.logger, m.dev, err)
			return
		}

		acct, err := m.accounts.GetByID(r.Context(), accountID)
		if err != nil {
			api.Fail(w, m.logger, m.dev, err)
			return
		}
		if acct == nil {
			api.Fail(w, m.logger, m.dev, fmt.Errorf("account no longer exists: %w", domain.ErrUnauthenticated))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
	})
}

// RequireAdmin runs after Authenticate and rejects accounts without the
// admin role.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFrom(r.Context())
		if !ok {
			api.Fail(w, m.logger, m.dev, fmt.Errorf("authentication required: %w", domain.ErrUnauthenticated))
			return
		}
		if acct.Role != domain.RoleAdmin {
			api.Fail(w, m.logger, m.dev, fmt.Errorf("admin role required: %w", domain.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
