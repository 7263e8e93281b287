package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/identity/domain"
	"github.com/allisson/gatekeeper/internal/metrics"
)

// metricsDomain labels every identity operation in business metrics.
const metricsDomain = "identity"

// userUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &userUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (u *userUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	u.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// Register records metrics for account registration.
func (u *userUseCaseWithMetrics) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Register(ctx, input)
	u.record(ctx, "register", start, err)
	return user, err
}

// Login records metrics for login attempts.
func (u *userUseCaseWithMetrics) Login(ctx context.Context, username, password string) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Login(ctx, username, password)
	u.record(ctx, "login", start, err)
	return user, err
}

// Deregister records metrics for account removal.
func (u *userUseCaseWithMetrics) Deregister(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := u.next.Deregister(ctx, id)
	u.record(ctx, "deregister", start, err)
	return err
}

// Get records metrics for account retrieval.
func (u *userUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Get(ctx, id)
	u.record(ctx, "get", start, err)
	return user, err
}

// List records metrics for account listing.
func (u *userUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	start := time.Now()
	users, err := u.next.List(ctx, offset, limit)
	u.record(ctx, "list", start, err)
	return users, err
}
