package app

import (
	"context"
	"fmt"

	"github.com/allisson/gatekeeper/internal/config"
	credentialService "github.com/allisson/gatekeeper/internal/credential/service"
	"github.com/allisson/gatekeeper/internal/database"
	identityHTTP "github.com/allisson/gatekeeper/internal/identity/http"
	identityRepository "github.com/allisson/gatekeeper/internal/identity/repository"
	identityUseCase "github.com/allisson/gatekeeper/internal/identity/usecase"
)

// IdentityStore is a user repository that can report its health.
type IdentityStore interface {
	identityUseCase.UserRepository
	Ping(ctx context.Context) error
}

// IdentityStore returns the repository selected by STORE_DRIVER.
func (c *Container) IdentityStore() (IdentityStore, error) {
	return c.identityStore.get(func() (IdentityStore, error) {
		switch c.config.StoreDriver {
		case config.StoreDriverFile:
			repo, err := identityRepository.NewFileUserRepository(c.config.StoreRootPath, c.Logger())
			if err != nil {
				return nil, fmt.Errorf("failed to open file identity store: %w", err)
			}
			return repo, nil
		case config.StoreDriverPostgres, config.StoreDriverMySQL:
			db, err := c.DB()
			if err != nil {
				return nil, fmt.Errorf("failed to get database for identity store: %w", err)
			}
			if c.config.StoreDriver == config.StoreDriverMySQL {
				return identityRepository.NewMySQLUserRepository(db), nil
			}
			return identityRepository.NewPostgreSQLUserRepository(db), nil
		default:
			return nil, fmt.Errorf("unsupported store driver: %s", c.config.StoreDriver)
		}
	})
}

// TxManager returns the unit-of-work manager matching the identity store.
func (c *Container) TxManager() (database.TxManager, error) {
	return c.txManager.get(func() (database.TxManager, error) {
		if c.config.StoreDriver == config.StoreDriverFile {
			store, err := c.IdentityStore()
			if err != nil {
				return nil, err
			}
			txManager, ok := store.(database.TxManager)
			if !ok {
				return nil, fmt.Errorf("file identity store does not support transactions")
			}
			return txManager, nil
		}

		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
		}
		return database.NewTxManager(db), nil
	})
}

// Hasher returns the Argon2id hasher configured from KDF_* settings.
func (c *Container) Hasher() (*credentialService.Argon2Hasher, error) {
	return c.hasher.get(func() (*credentialService.Argon2Hasher, error) {
		hasher, err := credentialService.NewArgon2Hasher(c.config.KDFParams())
		if err != nil {
			return nil, fmt.Errorf("invalid KDF configuration: %w", err)
		}
		return hasher, nil
	})
}

// UserUseCase returns the account use case, wrapped with metrics when enabled.
func (c *Container) UserUseCase() (identityUseCase.UseCase, error) {
	return c.userUseCase.get(func() (identityUseCase.UseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
		}
		store, err := c.IdentityStore()
		if err != nil {
			return nil, fmt.Errorf("failed to get identity store for user use case: %w", err)
		}
		hasher, err := c.Hasher()
		if err != nil {
			return nil, fmt.Errorf("failed to get hasher for user use case: %w", err)
		}

		baseUseCase, err := identityUseCase.NewUserUseCase(txManager, store, hasher, c.Logger())
		if err != nil {
			return nil, fmt.Errorf("failed to create user use case: %w", err)
		}

		if !c.config.MetricsEnabled {
			return baseUseCase, nil
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for user use case: %w", err)
		}
		return identityUseCase.NewUserUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	})
}

// AccountHandler returns the HTTP handler for the account endpoints.
func (c *Container) AccountHandler() (*identityHTTP.AccountHandler, error) {
	return c.accountHandler.get(func() (*identityHTTP.AccountHandler, error) {
		useCase, err := c.UserUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get user use case for account handler: %w", err)
		}
		sessions, err := c.SessionManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get session manager for account handler: %w", err)
		}
		return identityHTTP.NewAccountHandler(useCase, sessions, c.Logger()), nil
	})
}
