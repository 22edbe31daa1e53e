// Package session owns the signed-in user and the access token lifecycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/repository"
	"ledgerdesk/internal/service"
)

// State is the lifecycle position of a Manager.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

var (
	// ErrNoToken is returned when an operation needs a persisted access token and none exists.
	ErrNoToken = errors.New("no access token")
	// ErrEmptyToken is returned when the backend answers a credential exchange without a token.
	ErrEmptyToken = errors.New("backend returned an empty access token")
	// ErrNoRefreshToken is returned by Refresh when no refresh token was given or stored.
	ErrNoRefreshToken = errors.New("no refresh token")
)

// Expirer is notified by the API client whenever the backend rejects the
// session; *apiclient.Client satisfies it.
type Expirer interface {
	OnSessionExpired(fn func(ctx context.Context))
}

// Manager is the single source of truth for "is a user signed in" and "who".
// It is safe for concurrent use.
type Manager struct {
	auth   service.AuthService
	tokens repository.TokenStore
	logger logrus.FieldLogger

	mu           sync.RWMutex
	state        State
	user         *domain.User
	initializing bool
}

func NewManager(auth service.AuthService, tokens repository.TokenStore, logger logrus.FieldLogger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		auth:         auth,
		tokens:       tokens,
		logger:       logger,
		state:        StateUninitialized,
		initializing: true,
	}
}

// Watch makes every session-expired event from e log the user out locally.
func (m *Manager) Watch(e Expirer) {
	e.OnSessionExpired(func(ctx context.Context) {
		m.clearUser()
	})
}

// Init restores the session from the persisted token. Without a token no
// request is made. Any profile failure logs out.
func (m *Manager) Init(ctx context.Context) State {
	defer func() {
		m.mu.Lock()
		m.initializing = false
		m.mu.Unlock()
	}()

	token, err := repository.AccessToken(ctx, m.tokens)
	if err != nil {
		m.logger.WithError(err).Warn("read persisted access token")
	}
	if token == "" {
		m.setUser(nil)
		return StateAnonymous
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		m.logger.WithError(err).Warn("restore session")
		m.Logout(ctx)
		return StateAnonymous
	}
	m.setUser(user)
	m.logger.WithField("username", user.Username).Info("session restored")
	return StateAuthenticated
}

// Login exchanges credentials for a token, persists it and loads the profile.
// When the profile cannot be loaded the token is removed again so no
// token-without-user state survives.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	token, err := m.auth.Login(ctx, domain.Credentials{Username: username, Password: password})
	if err != nil {
		return err
	}
	if token.AccessToken == "" {
		return ErrEmptyToken
	}
	if err := m.persist(ctx, token); err != nil {
		return err
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		m.removeToken(ctx)
		m.clearUser()
		return err
	}
	m.setUser(user)
	m.logger.WithField("username", user.Username).Info("logged in")
	return nil
}

// Logout removes the persisted token and forgets the user. It never fails
// and may be called any number of times.
func (m *Manager) Logout(ctx context.Context) {
	m.removeToken(ctx)
	m.clearUser()
}

// Refresh exchanges a refresh token for a new access token and persists it.
// An empty refreshToken falls back to the one stored by the last Login.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		stored, err := repository.RefreshToken(ctx, m.tokens)
		if err != nil {
			return fmt.Errorf("read refresh token: %w", err)
		}
		if stored == "" {
			return ErrNoRefreshToken
		}
		refreshToken = stored
	}

	token, err := m.auth.RefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if token.AccessToken == "" {
		return ErrEmptyToken
	}
	return m.persist(ctx, token)
}

// persist stores the access token and, when the backend issued one, the
// refresh token.
func (m *Manager) persist(ctx context.Context, token *domain.Token) error {
	if err := m.tokens.Set(ctx, repository.AccessTokenKey, token.AccessToken); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if token.RefreshToken == "" {
		return nil
	}
	if err := m.tokens.Set(ctx, repository.RefreshTokenKey, token.RefreshToken); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	return nil
}

// CurrentUserProfile fetches the profile without touching session state.
func (m *Manager) CurrentUserProfile(ctx context.Context) (*domain.User, error) {
	return m.auth.Me(ctx)
}

// IsAuthenticated is true iff a current user is loaded.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// CurrentUser returns a copy of the loaded user, or nil.
func (m *Manager) CurrentUser() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// IsSuperuser gates admin-only views.
func (m *Manager) IsSuperuser() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.user.IsSuperuser
}

// IsInitializing is true until Init has returned.
func (m *Manager) IsInitializing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initializing
}

// State reports the current lifecycle position.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Claims is what the client can read from its own access token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// TokenClaims decodes the persisted access token without verifying its
// signature. Only the backend can verify; this is for display.
func (m *Manager) TokenClaims(ctx context.Context) (Claims, error) {
	token, err := repository.AccessToken(ctx, m.tokens)
	if err != nil {
		return Claims{}, err
	}
	if token == "" {
		return Claims{}, ErrNoToken
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("decode access token: %w", err)
	}
	out := Claims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (m *Manager) removeToken(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range []string{repository.AccessTokenKey, repository.RefreshTokenKey} {
		if err := m.tokens.Remove(ctx, key); err != nil {
			m.logger.WithError(err).WithField("key", key).Error("remove token")
		}
	}
}

func (m *Manager) setUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
	if user != nil {
		m.state = StateAuthenticated
	} else {
		m.state = StateAnonymous
	}
}

func (m *Manager) clearUser() {
	m.setUser(nil)
}
