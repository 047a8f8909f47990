// Package auth reads the role out of stored access tokens and turns
// authorization failures into a forced logout.
//
// Tokens are never verified here: the backend checks signatures on every
// request, the client only needs the claims to pick a login page.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/courtside/client/internal/client"
	"github.com/courtside/client/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Login pages a forced logout redirects to.
const (
	LoginPath      = "/login"
	AdminLoginPath = "/admin/login"
)

var (
	ErrNoToken   = errors.New("auth: no token")
	ErrWrongRole = errors.New("auth: wrong role")
)

// Claims is the part of the access token payload the client reads.
type Claims struct {
	Role client.Role `json:"role"`
	jwt.RegisteredClaims
}

// ParseClaims decodes token without checking its signature.
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	return &claims, nil
}

// RequireRole returns ErrWrongRole unless token carries one of roles.
func RequireRole(token string, roles ...client.Role) (client.Role, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return "", err
	}
	if !slices.Contains(roles, claims.Role) {
		return claims.Role, fmt.Errorf("%w: have %q", ErrWrongRole, claims.Role)
	}
	return claims.Role, nil
}

// Expired reports whether the token's exp claim is before now. Tokens
// without exp never expire.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Session ties the stores together for login state.
type Session struct {
	local   *storage.Local
	session *storage.SessionStore
	logger  zerolog.Logger
}

// NewSession creates a session over the persistent and process stores.
func NewSession(local *storage.Local, session *storage.SessionStore, logger zerolog.Logger) *Session {
	return &Session{
		local:   local,
		session: session,
		logger:  logger.With().Str("component", "auth").Logger(),
	}
}

// Token returns the player token, or the admin token when no player is
// logged in. It is safe to use as a client.TokenSource.
func (s *Session) Token() string {
	if t := s.local.AccessToken(); t != "" {
		return t
	}
	return s.local.AdminAccessToken()
}

// Admin reports whether the current login is an admin one.
func (s *Session) Admin() bool {
	return s.local.AccessToken() == "" && s.local.AdminAccessToken() != ""
}

// Handle inspects err and, for authorization failures, logs out. It
// returns the login page to show and whether a logout happened.
func (s *Session) Handle(err error) (string, bool) {
	if !errors.Is(err, client.ErrUnauthorized) && !errors.Is(err, ErrWrongRole) {
		return "", false
	}
	s.logger.Warn().Err(err).Msg("authorization failed, logging out")
	return s.Logout(), true
}

// Logout clears the tokens, sets the one-shot just_logged_out flag and
// returns the login page matching the previous login.
func (s *Session) Logout() string {
	redirect := LoginPath
	if s.Admin() {
		redirect = AdminLoginPath
	}
	if err := s.local.ClearTokens(); err != nil {
		s.logger.Error().Err(err).Msg("clearing tokens")
	}
	s.session.SetFlag(storage.FlagJustLoggedOut)
	return redirect
}

// JustLoggedOut consumes the flag set by Logout.
func (s *Session) JustLoggedOut() bool {
	return s.session.TakeFlag(storage.FlagJustLoggedOut)
}
