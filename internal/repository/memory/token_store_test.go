package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdesk/internal/repository"
)

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	_, err := store.Get(ctx, repository.AccessTokenKey)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Set(ctx, repository.AccessTokenKey, "tok"))
	require.NoError(t, store.Set(ctx, "theme", "dark"))
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Remove(ctx, repository.AccessTokenKey))
	token, err := repository.AccessToken(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestTokenStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, repository.AccessTokenKey, "tok")
			_, _ = repository.AccessToken(ctx, store)
			_ = store.Clear(ctx)
		}()
	}
	wg.Wait()
}
