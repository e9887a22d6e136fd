package payment

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialSource_Static(t *testing.T) {
	c := NewCredentialSource("sk_static", "", time.Minute)
	secret, err := c.Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk_static", secret)
}

func TestCredentialSource_Missing(t *testing.T) {
	c := NewCredentialSource("", "", time.Minute)
	_, err := c.Secret(context.Background())
	assert.ErrorIs(t, err, ErrSecretUnavailable)
}

func TestCredentialSource_FileRefreshAfterTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("sk_one\n"), 0o600))

	var clock atomic.Int64
	clock.Store(time.Now().UnixNano())

	c := NewCredentialSource("", path, time.Minute)
	c.now = func() time.Time { return time.Unix(0, clock.Load()) }

	ctx := context.Background()
	secret, err := c.Secret(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk_one", secret)

	require.NoError(t, os.WriteFile(path, []byte("sk_two"), 0o600))

	secret, _ = c.Secret(ctx)
	assert.Equal(t, "sk_one", secret, "within ttl the cached secret is served")

	clock.Add(int64(2 * time.Minute))
	secret, _ = c.Secret(ctx)
	assert.Equal(t, "sk_two", secret)

	// A failed refresh keeps serving the last good secret.
	require.NoError(t, os.Remove(path))
	clock.Add(int64(2 * time.Minute))
	secret, err = c.Secret(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk_two", secret)
}

func TestCredentialSource_ConcurrentFirstUse(t *testing.T) {
	c := NewCredentialSource("sk_static", "", time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			secret, err := c.Secret(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "sk_static", secret)
		}()
	}
	wg.Wait()
}
