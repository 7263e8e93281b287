// Package usecase implements author and post management on top of the content store.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/content/domain"
)

// Repository defines persistence operations for authors and posts.
// Implementations must be safe for concurrent use.
type Repository interface {
	// CreateAuthor stores a new author with version 1.
	CreateAuthor(ctx context.Context, author *domain.Author) error

	// UpdateAuthor saves an author whose stored version equals author.Version and
	// increments author.Version. Returns ErrVersionConflict otherwise.
	UpdateAuthor(ctx context.Context, author *domain.Author) error

	// GetAuthor retrieves an author. Returns ErrAuthorNotFound if not found.
	GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error)

	// DeleteAuthor removes an author and reports whether it existed.
	DeleteAuthor(ctx context.Context, id uuid.UUID) (bool, error)

	// ListAuthors returns authors in creation order.
	ListAuthors(ctx context.Context, offset, limit int) ([]*domain.Author, error)

	// CreatePost stores a new post with version 1.
	CreatePost(ctx context.Context, post *domain.Post) error

	// UpdatePost saves a post whose stored version equals post.Version and increments
	// post.Version. Returns ErrVersionConflict otherwise.
	UpdatePost(ctx context.Context, post *domain.Post) error

	// GetPost retrieves a post. Returns ErrPostNotFound if not found.
	GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// DeletePost removes a post and reports whether it existed.
	DeletePost(ctx context.Context, id uuid.UUID) (bool, error)

	// ListPosts returns posts in creation order, restricted to authorID unless it is uuid.Nil.
	ListPosts(ctx context.Context, authorID uuid.UUID, offset, limit int) ([]*domain.Post, error)

	// CountPostsByAuthor returns how many posts reference the author.
	CountPostsByAuthor(ctx context.Context, authorID uuid.UUID) (int, error)
}

// CreateAuthorInput contains the input data for a new author.
type CreateAuthorInput struct {
	DisplayName string
	Bio         string
	CreatedBy   uuid.UUID
}

// UpdateAuthorInput patches an author. Nil fields keep their stored value; a non-nil
// Version must equal the stored version.
type UpdateAuthorInput struct {
	DisplayName *string
	Bio         *string
	Version     *int64
}

// CreatePostInput contains the input data for a new post.
type CreatePostInput struct {
	AuthorID  uuid.UUID
	Title     string
	Content   string
	CreatedBy uuid.UUID
}

// UpdatePostInput patches a post. The author of a post cannot be changed.
type UpdatePostInput struct {
	Title   *string
	Content *string
	Version *int64
}

// AuthorUseCase defines the author operations exposed to HTTP handlers.
type AuthorUseCase interface {
	Create(ctx context.Context, input CreateAuthorInput) (*domain.Author, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateAuthorInput) (*domain.Author, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Author, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Author, error)

	// Delete removes the author. Returns ErrAuthorHasPosts while posts reference it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostUseCase defines the post operations exposed to HTTP handlers.
type PostUseCase interface {
	// Create stores a post. Returns ErrUnknownAuthor when AuthorID matches no author.
	Create(ctx context.Context, input CreatePostInput) (*domain.Post, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*domain.Post, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// List returns posts, restricted to authorID unless it is uuid.Nil.
	List(ctx context.Context, authorID uuid.UUID, offset, limit int) ([]*domain.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
