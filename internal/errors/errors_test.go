package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFault struct {
	Path string
}

func (e storeFault) Error() string { return "store fault at " + e.Path }

func TestWrap(t *testing.T) {
	t.Run("keeps sentinel in chain", func(t *testing.T) {
		err := Wrap(ErrConflict, "username already taken")
		require.Error(t, err)
		assert.Equal(t, "username already taken: conflict", err.Error())
		assert.True(t, Is(err, ErrConflict))
		assert.False(t, Is(err, ErrNotFound))
	})

	t.Run("nested wraps", func(t *testing.T) {
		err := Wrap(Wrap(ErrNotFound, "user not found"), "deregister")
		assert.Equal(t, "deregister: user not found: not found", err.Error())
		assert.True(t, Is(err, ErrNotFound))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "ignored"))
	})
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrForbidden, "role %q required", "admin")
	assert.Equal(t, `role "admin" required: forbidden`, err.Error())
	assert.True(t, Is(err, ErrForbidden))

	assert.NoError(t, Wrapf(nil, "limit %d", 100))
}

func TestAs(t *testing.T) {
	err := Wrap(storeFault{Path: "identities/01.json"}, "failed to read user")

	var fault storeFault
	require.True(t, As(err, &fault))
	assert.Equal(t, "identities/01.json", fault.Path)

	var other *storeFault
	assert.False(t, As(ErrNotFound, &other))
}

func TestNew(t *testing.T) {
	err := New("corrupt identity record")
	assert.EqualError(t, err, "corrupt identity record")
	assert.False(t, errors.Is(err, New("corrupt identity record")))
}

func TestStandardErrors(t *testing.T) {
	sentinels := map[error]string{
		ErrNotFound:     "not found",
		ErrConflict:     "conflict",
		ErrInvalidInput: "invalid input",
		ErrBadRequest:   "bad request",
		ErrUnauthorized: "unauthorized",
		ErrForbidden:    "forbidden",
	}

	for err, text := range sentinels {
		assert.EqualError(t, err, text)
		for other := range sentinels {
			if other != err {
				assert.False(t, Is(err, other), "%v must not match %v", err, other)
			}
		}
	}
}
