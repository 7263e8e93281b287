package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	credentialDomain "github.com/allisson/gatekeeper/internal/credential/domain"
	"github.com/allisson/gatekeeper/internal/identity/domain"
)

var userColumns = []string{"id", "username", "credential_binding", "is_admin", "version", "created_at"}

func newTestUser(username string) *domain.User {
	return &domain.User{
		ID:       uuid.Must(uuid.NewV7()),
		Username: username,
		Binding: credentialDomain.Binding{
			Version:     credentialDomain.Argon2Version,
			Memory:      64,
			Iterations:  1,
			Parallelism: 1,
			Salt:        []byte{0x01, 0x02, 0x03, 0x04},
			Hash:        []byte{0x0a, 0x0b, 0x0c, 0x0d},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func bindingJSON(t *testing.T, user *domain.User) []byte {
	t.Helper()
	data, err := json.Marshal(user.Binding)
	require.NoError(t, err)
	return data
}
