package repository

import (
	"context"
	"errors"
)

// AccessTokenKey is the well-known key the access token is persisted under.
const AccessTokenKey = "access_token"

// RefreshTokenKey holds the refresh token issued alongside the access token.
const RefreshTokenKey = "refresh_token"

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found")

// TokenStore is the client's local key/value storage. It holds the access
// token and is wiped wholesale when the backend reports an expired session.
// Implementations must be safe for concurrent use.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// AccessToken returns the persisted access token, or "" when none is stored.
func AccessToken(ctx context.Context, store TokenStore) (string, error) {
	token, err := store.Get(ctx, AccessTokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}

// RefreshToken returns the persisted refresh token, or "" when none is stored.
func RefreshToken(ctx context.Context, store TokenStore) (string, error) {
	token, err := store.Get(ctx, RefreshTokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}
