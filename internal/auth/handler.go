package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rmachado/storefront/internal/api"
	"github.com/rmachado/storefront/internal/domain"
)

// AccountStore is the account persistence surface the login flow needs.
type AccountStore interface {
	AccountGetter
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, acct *domain.Account) error
}

type Handler struct {
	accounts AccountStore
	tokens   *TokenManager
	logger   *slog.Logger
	secure   bool
	dev      bool
}

func NewHandler(accounts AccountStore, tokens *TokenManager, logger *slog.Logger, secure, dev bool) *Handler {
	return &Handler{
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
		secure:   secure,
		dev:      dev,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates by email and password. An unseen email creates
// a new user account with the supplied credentials; login doubles as
// first-time registration. On success a signed token is set as an
// HTTP-only cookie and a sanitized account summary is returned.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("invalid request body: %w", domain.ErrInvalidInput))
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("email and password are required: %w", domain.ErrInvalidInput))
		return
	}

	acct, err := h.accounts.GetByEmail(r.Context(), req.Email)
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	registered := false
	if acct == nil {
		hash, err := HashPassword(req.Password)
		if err != nil {
			api.Fail(w, h.logger, h.dev, err)
			return
		}
		acct = &domain.Account{
			Email:        req.Email,
			PasswordHash: hash,
			Role:         domain.RoleUser,
		}
		if err := h.accounts.Create(r.Context(), acct); err != nil {
			api.Fail(w, h.logger, h.dev, err)
			return
		}
		registered = true
	} else if err := CheckPassword(acct.PasswordHash, req.Password); err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	token, err := h.tokens.Issue(acct.ID)
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokens.TTL() / time.Second),
	})

	h.logger.Info("login", "account_id", acct.ID, "email", acct.Email, "registered", registered)
	api.OK(w, h.logger, http.StatusOK, map[string]any{"user": acct.Summary()})
}

// HandleLogout clears the session cookie. There is no server-side session
// state to revoke.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	api.OK(w, h.logger, http.StatusOK, map[string]any{"message": "logged out"})
}

// HandleMe returns the authenticated account. Runs behind Authenticate.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	acct, ok := AccountFrom(r.Context())
	if !ok {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("authentication required: %w", domain.ErrUnauthenticated))
		return
	}
	api.OK(w, h.logger, http.StatusOK, map[string]any{"user": acct.Summary()})
}
