package app

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/gatekeeper/internal/config"
	"github.com/allisson/gatekeeper/internal/policy"
	"github.com/allisson/gatekeeper/internal/session"
)

// sessionKeyPrefix namespaces session keys in redis.
const sessionKeyPrefix = "gatekeeper:session:"

// RedisClient returns the redis client for the session store.
func (c *Container) RedisClient() (redis.UniversalClient, error) {
	return c.redisClient.get(func() (redis.UniversalClient, error) {
		if c.config.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is not configured")
		}
		return redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{c.config.RedisAddr},
			Password: c.config.RedisPassword,
			DB:       c.config.RedisDB,
		}), nil
	})
}

// SessionStore returns the store selected by SESSION_DRIVER.
func (c *Container) SessionStore() (session.Store, error) {
	return c.sessionStore.get(func() (session.Store, error) {
		switch c.config.SessionDriver {
		case config.SessionDriverMemory:
			return session.NewMemoryStore(), nil
		case config.SessionDriverRedis:
			client, err := c.RedisClient()
			if err != nil {
				return nil, err
			}
			return session.NewRedisStore(client, sessionKeyPrefix), nil
		default:
			return nil, fmt.Errorf("unsupported session driver: %s", c.config.SessionDriver)
		}
	})
}

// SessionManager returns the cookie session manager. Cookies are Secure in production.
func (c *Container) SessionManager() (*session.Manager, error) {
	return c.sessionManager.get(func() (*session.Manager, error) {
		store, err := c.SessionStore()
		if err != nil {
			return nil, fmt.Errorf("failed to get session store: %w", err)
		}
		return session.NewManager(store, session.Config{
			CookieName: c.config.SessionCookieName,
			TTL:        c.config.SessionTTL,
			Secure:     c.config.IsProduction(),
		}, c.Logger()), nil
	})
}

// PolicyRegistry returns the registry resolving identities from the session manager.
func (c *Container) PolicyRegistry() (*policy.Registry, error) {
	return c.registry.get(func() (*policy.Registry, error) {
		sessions, err := c.SessionManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get session manager for policy registry: %w", err)
		}
		return policy.DefaultRegistry(sessions, c.Logger()), nil
	})
}
