package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	credentialDomain "github.com/allisson/gatekeeper/internal/credential/domain"
	credentialService "github.com/allisson/gatekeeper/internal/credential/service"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/identity/domain"
)

func cheapParams() credentialDomain.Params {
	return credentialDomain.Params{
		Version:     credentialDomain.Argon2Version,
		Memory:      64,
		Iterations:  1,
		Parallelism: 1,
	}
}

func newTestHasher(t *testing.T, params credentialDomain.Params) *credentialService.Argon2Hasher {
	t.Helper()
	h, err := credentialService.NewArgon2Hasher(params)
	require.NoError(t, err)
	return h
}

func newTestUseCase(t *testing.T) (UseCase, *MockTxManager, *MockUserRepository, *credentialService.Argon2Hasher) {
	t.Helper()
	txManager := &MockTxManager{}
	userRepo := &MockUserRepository{}
	hasher := newTestHasher(t, cheapParams())

	uc, err := NewUserUseCase(txManager, userRepo, hasher, createTestLogger())
	require.NoError(t, err)
	return uc, txManager, userRepo, hasher
}

// countingHasher wraps a hasher and counts Verify calls.
type countingHasher struct {
	credentialService.Hasher
	verifies int
}

func (c *countingHasher) Verify(password string, binding credentialDomain.Binding) bool {
	c.verifies++
	return c.Hasher.Verify(password, binding)
}

func TestNewUserUseCase(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		uc, _, _, _ := newTestUseCase(t)
		assert.NotNil(t, uc)
	})

	t.Run("Error_DummyBindingFails", func(t *testing.T) {
		broken, err := credentialService.NewArgon2Hasher(
			cheapParams(),
			credentialService.WithRandom(errReader{}),
		)
		require.NoError(t, err)

		uc, err := NewUserUseCase(&MockTxManager{}, &MockUserRepository{}, broken, createTestLogger())
		assert.Nil(t, uc)
		assert.ErrorIs(t, err, credentialDomain.ErrEntropyFailure)
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestUserUseCase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		uc, _, userRepo, hasher := newTestUseCase(t)
		userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil).Once()

		user, err := uc.Register(ctx, RegisterInput{Username: "  ada  ", Password: "analytical1"})
		require.NoError(t, err)

		assert.Equal(t, "ada", user.Username)
		assert.Equal(t, int64(1), user.Version)
		assert.False(t, user.IsAdmin)
		assert.Equal(t, uuid.Version(7), user.ID.Version())
		assert.False(t, user.CreatedAt.IsZero())
		assert.True(t, hasher.Verify("analytical1", user.Binding))
		userRepo.AssertExpectations(t)
	})

	t.Run("Error_UsernameTaken", func(t *testing.T) {
		uc, _, userRepo, _ := newTestUseCase(t)
		userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(domain.ErrUsernameTaken).Once()

		user, err := uc.Register(ctx, RegisterInput{Username: "ada", Password: "analytical1"})
		assert.Nil(t, user)
		assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	})

	invalid := []struct {
		name  string
		input RegisterInput
	}{
		{"MissingUsername", RegisterInput{Password: "analytical1"}},
		{"BadUsername", RegisterInput{Username: "a b", Password: "analytical1"}},
		{"ShortPassword", RegisterInput{Username: "ada", Password: "ab1"}},
		{"PasswordWithoutNumber", RegisterInput{Username: "ada", Password: "analytical"}},
	}

	for _, tt := range invalid {
		t.Run("Error_"+tt.name, func(t *testing.T) {
			uc, _, userRepo, _ := newTestUseCase(t)

			_, err := uc.Register(ctx, tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestUserUseCase_Login(t *testing.T) {
	ctx := context.Background()

	registered := func(t *testing.T, hasher credentialService.Hasher, password string) *domain.User {
		t.Helper()
		binding, err := hasher.Generate(password)
		require.NoError(t, err)
		return &domain.User{ID: uuid.Must(uuid.NewV7()), Username: "ada", Binding: binding, Version: 1}
	}

	t.Run("Success", func(t *testing.T) {
		uc, txManager, userRepo, hasher := newTestUseCase(t)
		user := registered(t, hasher, "analytical1")
		userRepo.On("GetByUsername", ctx, "ada").Return(user, nil).Once()

		got, err := uc.Login(ctx, "ada", "analytical1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		txManager.AssertNotCalled(t, "WithTx", mock.Anything, mock.Anything)
	})

	t.Run("Error_WrongPassword", func(t *testing.T) {
		uc, _, userRepo, hasher := newTestUseCase(t)
		user := registered(t, hasher, "analytical1")
		userRepo.On("GetByUsername", ctx, "ada").Return(user, nil).Once()

		got, err := uc.Login(ctx, "ada", "analytical2")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("Error_UnknownUserStillDerives", func(t *testing.T) {
		counting := &countingHasher{Hasher: newTestHasher(t, cheapParams())}
		userRepo := &MockUserRepository{}
		uc, err := NewUserUseCase(&MockTxManager{}, userRepo, counting, createTestLogger())
		require.NoError(t, err)
		userRepo.On("GetByUsername", ctx, "ghost").Return(nil, domain.ErrUserNotFound).Once()

		got, err := uc.Login(ctx, "ghost", "whatever1")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.Equal(t, 1, counting.verifies)
	})

	t.Run("Error_StoreFailure", func(t *testing.T) {
		uc, _, userRepo, _ := newTestUseCase(t)
		userRepo.On("GetByUsername", ctx, "ada").Return(nil, errors.New("disk gone")).Once()

		_, err := uc.Login(ctx, "ada", "analytical1")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("Success_UpgradesOldBinding", func(t *testing.T) {
		old := newTestHasher(t, credentialDomain.Params{
			Version:     credentialDomain.Argon2Version,
			Memory:      32,
			Iterations:  1,
			Parallelism: 1,
		})
		uc, txManager, userRepo, _ := newTestUseCase(t)
		user := registered(t, old, "analytical1")

		userRepo.On("GetByUsername", ctx, "ada").Return(user, nil).Once()
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil).Once()
		userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil).Once()

		got, err := uc.Login(ctx, "ada", "analytical1")
		require.NoError(t, err)
		assert.Equal(t, cheapParams(), got.Binding.Params())
		assert.Equal(t, int64(2), got.Version)
		userRepo.AssertExpectations(t)
	})

	t.Run("Success_StrongerBindingKept", func(t *testing.T) {
		strong := newTestHasher(t, credentialDomain.Params{
			Version:     credentialDomain.Argon2Version,
			Memory:      128,
			Iterations:  2,
			Parallelism: 1,
		})
		uc, txManager, userRepo, _ := newTestUseCase(t)
		user := registered(t, strong, "analytical1")

		userRepo.On("GetByUsername", ctx, "ada").Return(user, nil).Once()

		got, err := uc.Login(ctx, "ada", "analytical1")
		require.NoError(t, err)
		assert.Equal(t, uint32(128), got.Binding.Memory)
		assert.Equal(t, int64(1), got.Version)
		txManager.AssertNotCalled(t, "WithTx", mock.Anything, mock.Anything)
		userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Success_UpgradeConflictKeepsLogin", func(t *testing.T) {
		old := newTestHasher(t, credentialDomain.Params{
			Version:     credentialDomain.Argon2Version,
			Memory:      32,
			Iterations:  1,
			Parallelism: 1,
		})
		uc, txManager, userRepo, _ := newTestUseCase(t)
		user := registered(t, old, "analytical1")

		userRepo.On("GetByUsername", ctx, "ada").Return(user, nil).Once()
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil).Once()
		userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(domain.ErrVersionConflict).Once()

		got, err := uc.Login(ctx, "ada", "analytical1")
		require.NoError(t, err)
		assert.Equal(t, uint32(32), got.Binding.Memory)
		assert.Equal(t, int64(1), got.Version)
	})
}

func TestUserUseCase_Deregister(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		uc, txManager, userRepo, _ := newTestUseCase(t)
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil).Once()
		userRepo.On("Delete", ctx, id).Return(true, nil).Once()

		assert.NoError(t, uc.Deregister(ctx, id))
		userRepo.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		uc, txManager, userRepo, _ := newTestUseCase(t)
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil).Once()
		userRepo.On("Delete", ctx, id).Return(false, nil).Once()

		assert.ErrorIs(t, uc.Deregister(ctx, id), domain.ErrUserNotFound)
	})
}

func TestUserUseCase_GetAndList(t *testing.T) {
	ctx := context.Background()
	uc, _, userRepo, _ := newTestUseCase(t)
	user := &domain.User{ID: uuid.Must(uuid.NewV7()), Username: "ada"}

	userRepo.On("GetByID", ctx, user.ID).Return(user, nil).Once()
	userRepo.On("List", ctx, 0, 50).Return([]*domain.User{user}, nil).Once()

	got, err := uc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	users, err := uc.List(ctx, 0, 50)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
