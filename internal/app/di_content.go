package app

import (
	"context"
	"fmt"

	"github.com/allisson/gatekeeper/internal/config"
	contentHTTP "github.com/allisson/gatekeeper/internal/content/http"
	contentRepository "github.com/allisson/gatekeeper/internal/content/repository"
	contentUseCase "github.com/allisson/gatekeeper/internal/content/usecase"
	"github.com/allisson/gatekeeper/internal/database"
)

// ContentStore is an author and post repository that can report its health.
type ContentStore interface {
	contentUseCase.Repository
	Ping(ctx context.Context) error
}

// ContentStore returns the author and post repository selected by STORE_DRIVER.
func (c *Container) ContentStore() (ContentStore, error) {
	return c.contentStore.get(func() (ContentStore, error) {
		switch c.config.StoreDriver {
		case config.StoreDriverFile:
			repo, err := contentRepository.NewFileContentRepository(c.config.StoreRootPath, c.Logger())
			if err != nil {
				return nil, fmt.Errorf("failed to open file content store: %w", err)
			}
			return repo, nil
		case config.StoreDriverPostgres, config.StoreDriverMySQL:
			db, err := c.DB()
			if err != nil {
				return nil, fmt.Errorf("failed to get database for content store: %w", err)
			}
			if c.config.StoreDriver == config.StoreDriverMySQL {
				return contentRepository.NewMySQLContentRepository(db), nil
			}
			return contentRepository.NewPostgreSQLContentRepository(db), nil
		default:
			return nil, fmt.Errorf("unsupported store driver: %s", c.config.StoreDriver)
		}
	})
}

// ContentTxManager returns the unit-of-work manager matching the content store. The SQL
// drivers share the identity store's manager.
func (c *Container) ContentTxManager() (database.TxManager, error) {
	if c.config.StoreDriver != config.StoreDriverFile {
		return c.TxManager()
	}
	return c.contentTxManager.get(func() (database.TxManager, error) {
		store, err := c.ContentStore()
		if err != nil {
			return nil, err
		}
		txManager, ok := store.(database.TxManager)
		if !ok {
			return nil, fmt.Errorf("file content store does not support transactions")
		}
		return txManager, nil
	})
}

// AuthorUseCase returns the author use case, wrapped with metrics when enabled.
func (c *Container) AuthorUseCase() (contentUseCase.AuthorUseCase, error) {
	return c.authorUseCase.get(func() (contentUseCase.AuthorUseCase, error) {
		txManager, err := c.ContentTxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for author use case: %w", err)
		}
		store, err := c.ContentStore()
		if err != nil {
			return nil, fmt.Errorf("failed to get content store for author use case: %w", err)
		}

		baseUseCase := contentUseCase.NewAuthorUseCase(txManager, store, c.Logger())
		if !c.config.MetricsEnabled {
			return baseUseCase, nil
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for author use case: %w", err)
		}
		return contentUseCase.NewAuthorUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	})
}

// PostUseCase returns the post use case, wrapped with metrics when enabled.
func (c *Container) PostUseCase() (contentUseCase.PostUseCase, error) {
	return c.postUseCase.get(func() (contentUseCase.PostUseCase, error) {
		txManager, err := c.ContentTxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for post use case: %w", err)
		}
		store, err := c.ContentStore()
		if err != nil {
			return nil, fmt.Errorf("failed to get content store for post use case: %w", err)
		}

		baseUseCase := contentUseCase.NewPostUseCase(txManager, store, c.Logger())
		if !c.config.MetricsEnabled {
			return baseUseCase, nil
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for post use case: %w", err)
		}
		return contentUseCase.NewPostUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	})
}

// ContentHandler returns the HTTP handler for the author and post endpoints.
func (c *Container) ContentHandler() (*contentHTTP.ContentHandler, error) {
	return c.contentHandler.get(func() (*contentHTTP.ContentHandler, error) {
		authors, err := c.AuthorUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get author use case for content handler: %w", err)
		}
		posts, err := c.PostUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get post use case for content handler: %w", err)
		}
		return contentHTTP.NewContentHandler(authors, posts, c.Logger()), nil
	})
}
