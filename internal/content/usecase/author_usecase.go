package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/gatekeeper/internal/content/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	appValidation "github.com/allisson/gatekeeper/internal/validation"
)

// Field limits shared by the use cases and the request DTOs.
const (
	MaxDisplayNameLength = 128
	MaxBioLength         = 2048
	MaxTitleLength       = 200
	MaxContentLength     = 64 * 1024
)

// authorUseCase handles author business logic
type authorUseCase struct {
	txManager database.TxManager
	repo      Repository
	logger    *slog.Logger
}

// NewAuthorUseCase creates the author use case.
func NewAuthorUseCase(txManager database.TxManager, repo Repository, logger *slog.Logger) AuthorUseCase {
	return &authorUseCase{
		txManager: txManager,
		repo:      repo,
		logger:    logger,
	}
}

func validateAuthor(author *domain.Author) error {
	err := validation.ValidateStruct(author,
		validation.Field(&author.DisplayName,
			validation.Required.Error("display_name is required"),
			appValidation.NotBlank,
			validation.RuneLength(1, MaxDisplayNameLength),
		),
		validation.Field(&author.Bio, validation.RuneLength(0, MaxBioLength)),
	)
	return appValidation.WrapValidationError(err)
}

// Create validates the input and stores a new author.
func (uc *authorUseCase) Create(ctx context.Context, input CreateAuthorInput) (*domain.Author, error) {
	now := time.Now().UTC()
	author := &domain.Author{
		ID:          uuid.Must(uuid.NewV7()),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Bio:         input.Bio,
		CreatedBy:   input.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateAuthor(author); err != nil {
		return nil, err
	}

	if err := uc.repo.CreateAuthor(ctx, author); err != nil {
		return nil, err
	}

	uc.logger.Info("author created",
		slog.String("author_id", author.ID.String()),
		slog.String("created_by", author.CreatedBy.String()))
	return author, nil
}

// Update applies the patch to the stored author under optimistic locking.
func (uc *authorUseCase) Update(ctx context.Context, id uuid.UUID, input UpdateAuthorInput) (*domain.Author, error) {
	var updated *domain.Author

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		author, err := uc.repo.GetAuthor(ctx, id)
		if err != nil {
			return err
		}
		if input.Version != nil && *input.Version != author.Version {
			return domain.ErrVersionConflict
		}

		if input.DisplayName != nil {
			author.DisplayName = strings.TrimSpace(*input.DisplayName)
		}
		if input.Bio != nil {
			author.Bio = *input.Bio
		}
		if err := validateAuthor(author); err != nil {
			return err
		}
		author.UpdatedAt = time.Now().UTC()

		if err := uc.repo.UpdateAuthor(ctx, author); err != nil {
			return err
		}
		updated = author
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get retrieves an author by ID.
func (uc *authorUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	return uc.repo.GetAuthor(ctx, id)
}

// List returns authors in creation order.
func (uc *authorUseCase) List(ctx context.Context, offset, limit int) ([]*domain.Author, error) {
	return uc.repo.ListAuthors(ctx, offset, limit)
}

// Delete removes an author that no post references.
func (uc *authorUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		count, err := uc.repo.CountPostsByAuthor(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperrors.Wrapf(domain.ErrAuthorHasPosts, "%d posts", count)
		}

		existed, err := uc.repo.DeleteAuthor(ctx, id)
		if err != nil {
			return err
		}
		if !existed {
			return domain.ErrAuthorNotFound
		}

		uc.logger.Info("author deleted", slog.String("author_id", id.String()))
		return nil
	})
}
