package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	credentialDomain "github.com/allisson/gatekeeper/internal/credential/domain"
	credentialService "github.com/allisson/gatekeeper/internal/credential/service"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/identity/domain"
	appValidation "github.com/allisson/gatekeeper/internal/validation"
)

// dummyPassword seeds the binding verified for unknown usernames.
const dummyPassword = "gatekeeper-timing-equalizer"

// userUseCase handles account business logic
type userUseCase struct {
	txManager database.TxManager
	userRepo  UserRepository
	hasher    credentialService.Hasher
	dummy     credentialDomain.Binding
	logger    *slog.Logger
}

// NewUserUseCase creates the account use case. It derives one dummy binding up front so
// logins for unknown usernames cost the same as a wrong password.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	hasher credentialService.Hasher,
	logger *slog.Logger,
) (UseCase, error) {
	dummy, err := hasher.Generate(dummyPassword)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive dummy credential binding")
	}

	return &userUseCase{
		txManager: txManager,
		userRepo:  userRepo,
		hasher:    hasher,
		dummy:     dummy,
		logger:    logger,
	}, nil
}

func validateRegisterInput(input RegisterInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
			appValidation.Username,
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
			appValidation.PasswordStrength{
				MinLength:     8,
				RequireLower:  true,
				RequireNumber: true,
			},
		),
	)
	return appValidation.WrapValidationError(err)
}

// Register validates the input, derives the binding and stores the record.
func (uc *userUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	binding, err := uc.hasher.Generate(input.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive credential binding")
	}

	user := &domain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Username:  input.Username,
		Binding:   binding,
		IsAdmin:   input.IsAdmin,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login looks the account up and verifies the password against its binding.
func (uc *userUseCase) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := uc.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperrors.Is(err, domain.ErrUserNotFound) {
			uc.hasher.Verify(password, uc.dummy)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !uc.hasher.Verify(password, user.Binding) {
		return nil, domain.ErrInvalidCredentials
	}

	if user.Binding.Params().WeakerThan(uc.hasher.Params()) {
		uc.upgradeBinding(ctx, user, password)
	}
	return user, nil
}

// upgradeBinding re-derives a binding created under older parameters. Failures leave the
// old binding in place; it keeps verifying.
func (uc *userUseCase) upgradeBinding(ctx context.Context, user *domain.User, password string) {
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		binding, err := uc.hasher.Generate(password)
		if err != nil {
			return err
		}
		upgraded := *user
		upgraded.Binding = binding
		if err := uc.userRepo.Update(ctx, &upgraded); err != nil {
			return err
		}
		*user = upgraded
		return nil
	})
	if err != nil {
		uc.logger.Warn("credential binding upgrade skipped",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err))
	}
}

// Deregister removes the account.
func (uc *userUseCase) Deregister(ctx context.Context, id uuid.UUID) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		removed, err := uc.userRepo.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !removed {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

// Get retrieves an account by ID
func (uc *userUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// List returns accounts in creation order
func (uc *userUseCase) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	return uc.userRepo.List(ctx, offset, limit)
}
