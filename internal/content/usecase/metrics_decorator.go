package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/content/domain"
	"github.com/allisson/gatekeeper/internal/metrics"
)

// metricsDomain labels every content operation in business metrics.
const metricsDomain = "content"

func record(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.RecordOperation(ctx, metricsDomain, operation, status)
	m.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// authorUseCaseWithMetrics decorates AuthorUseCase with metrics instrumentation.
type authorUseCaseWithMetrics struct {
	next    AuthorUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthorUseCaseWithMetrics wraps an AuthorUseCase with metrics recording.
func NewAuthorUseCaseWithMetrics(useCase AuthorUseCase, m metrics.BusinessMetrics) AuthorUseCase {
	return &authorUseCaseWithMetrics{next: useCase, metrics: m}
}

func (u *authorUseCaseWithMetrics) Create(ctx context.Context, input CreateAuthorInput) (*domain.Author, error) {
	start := time.Now()
	author, err := u.next.Create(ctx, input)
	record(ctx, u.metrics, "create_author", start, err)
	return author, err
}

func (u *authorUseCaseWithMetrics) Update(
	ctx context.Context,
	id uuid.UUID,
	input UpdateAuthorInput,
) (*domain.Author, error) {
	start := time.Now()
	author, err := u.next.Update(ctx, id, input)
	record(ctx, u.metrics, "update_author", start, err)
	return author, err
}

func (u *authorUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	start := time.Now()
	author, err := u.next.Get(ctx, id)
	record(ctx, u.metrics, "get_author", start, err)
	return author, err
}

func (u *authorUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*domain.Author, error) {
	start := time.Now()
	authors, err := u.next.List(ctx, offset, limit)
	record(ctx, u.metrics, "list_authors", start, err)
	return authors, err
}

func (u *authorUseCaseWithMetrics) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := u.next.Delete(ctx, id)
	record(ctx, u.metrics, "delete_author", start, err)
	return err
}

// postUseCaseWithMetrics decorates PostUseCase with metrics instrumentation.
type postUseCaseWithMetrics struct {
	next    PostUseCase
	metrics metrics.BusinessMetrics
}

// NewPostUseCaseWithMetrics wraps a PostUseCase with metrics recording.
func NewPostUseCaseWithMetrics(useCase PostUseCase, m metrics.BusinessMetrics) PostUseCase {
	return &postUseCaseWithMetrics{next: useCase, metrics: m}
}

func (u *postUseCaseWithMetrics) Create(ctx context.Context, input CreatePostInput) (*domain.Post, error) {
	start := time.Now()
	post, err := u.next.Create(ctx, input)
	record(ctx, u.metrics, "create_post", start, err)
	return post, err
}

func (u *postUseCaseWithMetrics) Update(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*domain.Post, error) {
	start := time.Now()
	post, err := u.next.Update(ctx, id, input)
	record(ctx, u.metrics, "update_post", start, err)
	return post, err
}

func (u *postUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	start := time.Now()
	post, err := u.next.Get(ctx, id)
	record(ctx, u.metrics, "get_post", start, err)
	return post, err
}

func (u *postUseCaseWithMetrics) List(
	ctx context.Context,
	authorID uuid.UUID,
	offset, limit int,
) ([]*domain.Post, error) {
	start := time.Now()
	posts, err := u.next.List(ctx, authorID, offset, limit)
	record(ctx, u.metrics, "list_posts", start, err)
	return posts, err
}

func (u *postUseCaseWithMetrics) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := u.next.Delete(ctx, id)
	record(ctx, u.metrics, "delete_post", start, err)
	return err
}
