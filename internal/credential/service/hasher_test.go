package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/gatekeeper/internal/credential/domain"
)

// testParams keeps the KDF cheap while exercising the same code paths.
func testParams() Params {
	return Params{
		Version:     domain.Argon2Version,
		Memory:      64,
		Iterations:  1,
		Parallelism: 1,
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestNewArgon2Hasher(t *testing.T) {
	t.Run("Success_DefaultParams", func(t *testing.T) {
		h, err := NewArgon2Hasher(domain.DefaultParams())
		require.NoError(t, err)
		assert.NotNil(t, h)
	})

	t.Run("Error_InvalidParams", func(t *testing.T) {
		params := testParams()
		params.Parallelism = 0

		h, err := NewArgon2Hasher(params)
		assert.Nil(t, h)
		assert.ErrorIs(t, err, domain.ErrLibraryFailure)
	})
}

func TestArgon2Hasher_Generate(t *testing.T) {
	h, err := NewArgon2Hasher(testParams())
	require.NoError(t, err)

	t.Run("Success_RecordsParameters", func(t *testing.T) {
		binding, err := h.Generate("correct horse")
		require.NoError(t, err)

		assert.Equal(t, testParams(), binding.Params())
		assert.Len(t, binding.Salt, domain.SaltLength)
		assert.Len(t, binding.Hash, domain.KeyLength)
	})

	t.Run("Success_FreshSaltPerCall", func(t *testing.T) {
		first, err := h.Generate("same password")
		require.NoError(t, err)
		second, err := h.Generate("same password")
		require.NoError(t, err)

		assert.NotEqual(t, first.Salt, second.Salt)
		assert.NotEqual(t, first.Hash, second.Hash)
	})

	t.Run("Success_EmptyPassword", func(t *testing.T) {
		binding, err := h.Generate("")
		require.NoError(t, err)
		assert.True(t, h.Verify("", binding))
	})

	t.Run("Error_EntropyFailure", func(t *testing.T) {
		broken, err := NewArgon2Hasher(testParams(), WithRandom(failingReader{}))
		require.NoError(t, err)

		_, err = broken.Generate("password")
		assert.ErrorIs(t, err, domain.ErrEntropyFailure)
	})
}

func TestArgon2Hasher_Verify(t *testing.T) {
	h, err := NewArgon2Hasher(testParams())
	require.NoError(t, err)

	binding, err := h.Generate("s3cret-pass")
	require.NoError(t, err)

	t.Run("Success_Matches", func(t *testing.T) {
		assert.True(t, h.Verify("s3cret-pass", binding))
	})

	t.Run("Success_WrongPassword", func(t *testing.T) {
		assert.False(t, h.Verify("s3cret-pasS", binding))
	})

	t.Run("Success_OldParametersStillVerify", func(t *testing.T) {
		params := testParams()
		params.Iterations = 2
		upgraded, err := NewArgon2Hasher(params)
		require.NoError(t, err)

		assert.True(t, upgraded.Verify("s3cret-pass", binding))
	})

	t.Run("Success_SingleBitFlipRejected", func(t *testing.T) {
		tampered := binding
		tampered.Hash = append([]byte(nil), binding.Hash...)
		tampered.Hash[0] ^= 0x01
		assert.False(t, h.Verify("s3cret-pass", tampered))
	})

	invalid := []struct {
		name   string
		modify func(b *domain.Binding)
	}{
		{"ZeroParallelism", func(b *domain.Binding) { b.Parallelism = 0 }},
		{"ZeroIterations", func(b *domain.Binding) { b.Iterations = 0 }},
		{"UnknownVersion", func(b *domain.Binding) { b.Version = 0x42 }},
		{"HugeMemory", func(b *domain.Binding) { b.Memory = domain.MaxMemory + 1 }},
		{"EmptySalt", func(b *domain.Binding) { b.Salt = nil }},
		{"EmptyHash", func(b *domain.Binding) { b.Hash = nil }},
	}

	for _, tt := range invalid {
		t.Run("Failure_"+tt.name, func(t *testing.T) {
			b := binding
			tt.modify(&b)
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("s3cret-pass", b))
			})
		})
	}
}
