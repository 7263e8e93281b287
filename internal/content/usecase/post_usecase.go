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

// postUseCase handles post business logic
type postUseCase struct {
	txManager database.TxManager
	repo      Repository
	logger    *slog.Logger
}

// NewPostUseCase creates the post use case.
func NewPostUseCase(txManager database.TxManager, repo Repository, logger *slog.Logger) PostUseCase {
	return &postUseCase{
		txManager: txManager,
		repo:      repo,
		logger:    logger,
	}
}

func validatePost(post *domain.Post) error {
	err := validation.ValidateStruct(post,
		validation.Field(&post.AuthorID, appValidation.RequiredUUID),
		validation.Field(&post.Title,
			validation.Required.Error("title is required"),
			appValidation.NotBlank,
			validation.RuneLength(1, MaxTitleLength),
		),
		validation.Field(&post.Content,
			validation.Required.Error("content is required"),
			validation.RuneLength(1, MaxContentLength),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Create stores a post after checking its author exists.
func (uc *postUseCase) Create(ctx context.Context, input CreatePostInput) (*domain.Post, error) {
	now := time.Now().UTC()
	post := &domain.Post{
		ID:        uuid.Must(uuid.NewV7()),
		AuthorID:  input.AuthorID,
		Title:     strings.TrimSpace(input.Title),
		Content:   input.Content,
		CreatedBy: input.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validatePost(post); err != nil {
		return nil, err
	}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := uc.repo.GetAuthor(ctx, post.AuthorID); err != nil {
			if apperrors.Is(err, domain.ErrAuthorNotFound) {
				return domain.ErrUnknownAuthor
			}
			return err
		}
		return uc.repo.CreatePost(ctx, post)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("post created",
		slog.String("post_id", post.ID.String()),
		slog.String("author_id", post.AuthorID.String()),
		slog.String("created_by", post.CreatedBy.String()))
	return post, nil
}

// Update applies the patch to the stored post under optimistic locking.
func (uc *postUseCase) Update(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*domain.Post, error) {
	var updated *domain.Post

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		post, err := uc.repo.GetPost(ctx, id)
		if err != nil {
			return err
		}
		if input.Version != nil && *input.Version != post.Version {
			return domain.ErrVersionConflict
		}

		if input.Title != nil {
			post.Title = strings.TrimSpace(*input.Title)
		}
		if input.Content != nil {
			post.Content = *input.Content
		}
		if err := validatePost(post); err != nil {
			return err
		}
		post.UpdatedAt = time.Now().UTC()

		if err := uc.repo.UpdatePost(ctx, post); err != nil {
			return err
		}
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get retrieves a post by ID.
func (uc *postUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return uc.repo.GetPost(ctx, id)
}

// List returns posts in creation order, optionally for one author.
func (uc *postUseCase) List(ctx context.Context, authorID uuid.UUID, offset, limit int) ([]*domain.Post, error) {
	return uc.repo.ListPosts(ctx, authorID, offset, limit)
}

// Delete removes a post.
func (uc *postUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	existed, err := uc.repo.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return domain.ErrPostNotFound
	}

	uc.logger.Info("post deleted", slog.String("post_id", id.String()))
	return nil
}
