package payment

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CredentialSource hands out the gateway secret. The secret is loaded on
// first use and re-read from its source once ttl has passed; concurrent
// refreshes collapse into one.
type CredentialSource struct {
	static string
	file   string
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	secret    string
	checkedAt time.Time

	group singleflight.Group
}

// NewCredentialSource reads the secret from file when set, otherwise uses
// static.
func NewCredentialSource(static, file string, ttl time.Duration) *CredentialSource {
	return &CredentialSource{
		static: static,
		file:   file,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *CredentialSource) Secret(ctx context.Context) (string, error) {
	c.mu.RLock()
	secret, checkedAt := c.secret, c.checkedAt
	c.mu.RUnlock()

	if secret != "" && (c.ttl <= 0 || c.now().Sub(checkedAt) < c.ttl) {
		return secret, nil
	}

	v, err, _ := c.group.Do("secret", func() (any, error) {
		return c.refresh()
	})
	if err != nil {
		if secret != "" {
			logger.FromCtx(ctx).Warn("payment secret refresh failed, keeping previous", zap.Error(err))
			return secret, nil
		}
		return "", err
	}
	return v.(string), nil
}

func (c *CredentialSource) refresh() (string, error) {
	secret := c.static
	if c.file != "" {
		raw, err := os.ReadFile(c.file)
		if err != nil {
			return "", ErrSecretUnavailable.WithDetails(map[string]any{"reason": err.Error()})
		}
		secret = strings.TrimSpace(string(raw))
	}
	if secret == "" {
		return "", ErrSecretUnavailable
	}

	c.mu.Lock()
	c.secret = secret
	c.checkedAt = c.now()
	c.mu.Unlock()
	return secret, nil
}
