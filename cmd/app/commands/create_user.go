package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	identityUseCase "github.com/allisson/gatekeeper/internal/identity/usecase"
)

// RunCreateUser provisions an account. Unlike HTTP registration it can create admins.
// The password is read from io when empty. Outputs the account in text or JSON format.
func RunCreateUser(
	ctx context.Context,
	userUseCase identityUseCase.UseCase,
	logger *slog.Logger,
	username string,
	password string,
	isAdmin bool,
	format string,
	io IOTuple,
) error {
	logger.Info("creating new user", slog.String("username", username), slog.Bool("is_admin", isAdmin))

	password, err := readPassword(password, io)
	if err != nil {
		return err
	}

	user, err := userUseCase.Register(ctx, identityUseCase.RegisterInput{
		Username: username,
		Password: password,
		IsAdmin:  isAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if format == "json" {
		if err := writeJSON(userOutput(user), io.Writer); err != nil {
			return err
		}
	} else {
		outputUserText(user, io.Writer)
	}

	logger.Info("user created successfully",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
	)

	return nil
}

func userOutput(user *identityDomain.User) map[string]string {
	return map[string]string{
		"user_id":    user.ID.String(),
		"username":   user.Username,
		"role":       string(user.Role()),
		"created_at": user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func outputUserText(user *identityDomain.User, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nUser created successfully!")
	_, _ = fmt.Fprintf(writer, "User ID: %s\n", user.ID.String())
	_, _ = fmt.Fprintf(writer, "Username: %s\n", user.Username)
	_, _ = fmt.Fprintf(writer, "Role: %s\n", user.Role())
}
