package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"
)

var (
	ErrNoSession       = errors.New("no session")
	ErrAccountInactive = errors.New("account is not active")
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticator resolves the session cookie of a request to a Principal. It is
// the only place sessions are decoded.
type Authenticator struct {
	tokens     *TokenManager
	users      UserLookup
	cookieName string
}

func NewAuthenticator(tokens *TokenManager, users UserLookup, cookieName string) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, cookieName: cookieName}
}

func (a *Authenticator) CookieName() string { return a.cookieName }

// Authenticate returns ErrNoSession, ErrInvalidToken or ErrAccountInactive for
// callers that must be rejected; any other error is a lookup failure.
func (a *Authenticator) Authenticate(r *http.Request) (*Principal, error) {
	cookie, err := r.Cookie(a.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	claims, err := a.tokens.Parse(cookie.Value)
	if err != nil {
		return nil, err
	}
	u, err := a.users.GetByID(r.Context(), claims.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return &Principal{
		ID:       u.ID,
		Username: u.Username,
		// a demoted admin loses access before the token expires
		IsAdmin: claims.User.IsAdmin && u.IsAdmin,
	}, nil
}

// IsRejection reports whether err means the caller is unauthenticated rather
// than that the check itself failed.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrAccountInactive)
}
