package commands

import (
	"fmt"
	"log/slog"

	credentialService "github.com/allisson/gatekeeper/internal/credential/service"
)

// RunHashPassword derives a binding for the password with the configured KDF parameters
// and prints its JSON encoding. The password is read from io when empty.
func RunHashPassword(hasher credentialService.Hasher, logger *slog.Logger, password string, io IOTuple) error {
	password, err := readPassword(password, io)
	if err != nil {
		return err
	}

	binding, err := hasher.Generate(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	params := binding.Params()
	logger.Debug("password hashed",
		slog.Uint64("memory_kib", uint64(params.Memory)),
		slog.Uint64("iterations", uint64(params.Iterations)),
		slog.Uint64("parallelism", uint64(params.Parallelism)),
	)

	return writeJSON(binding, io.Writer)
}
