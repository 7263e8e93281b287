// Package service implements the Argon2id password hasher.
package service

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/allisson/gatekeeper/internal/credential/domain"
)

// Hasher generates and verifies password bindings.
type Hasher interface {
	// Generate derives a new binding for the password with fresh random salt.
	Generate(password string) (domain.Binding, error)

	// Verify reports whether the password matches the binding. It never panics and
	// returns false when the binding carries parameters the KDF can't run with.
	Verify(password string, binding domain.Binding) bool

	// Params returns the parameters new bindings are derived with.
	Params() domain.Params
}

// Option configures an Argon2Hasher.
type Option func(*Argon2Hasher)

// WithRandom replaces the entropy source used for salts.
func WithRandom(r io.Reader) Option {
	return func(h *Argon2Hasher) {
		h.random = r
	}
}

// Argon2Hasher is the Argon2id implementation of Hasher.
type Argon2Hasher struct {
	params Params
	random io.Reader
}

// Params aliases the domain parameters so callers configure the hasher from one package.
type Params = domain.Params

// NewArgon2Hasher creates a hasher that derives new bindings with params.
func NewArgon2Hasher(params Params, opts ...Option) (*Argon2Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	h := &Argon2Hasher{
		params: params,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Generate derives a binding for password with the configured parameters.
func (h *Argon2Hasher) Generate(password string) (domain.Binding, error) {
	salt := make([]byte, domain.SaltLength)
	if _, err := io.ReadFull(h.random, salt); err != nil {
		return domain.Binding{}, fmt.Errorf("%w: %v", domain.ErrEntropyFailure, err)
	}

	hash, err := derive([]byte(password), salt, h.params, domain.KeyLength)
	if err != nil {
		return domain.Binding{}, err
	}

	return domain.Binding{
		Version:     h.params.Version,
		Memory:      h.params.Memory,
		Iterations:  h.params.Iterations,
		Parallelism: h.params.Parallelism,
		Salt:        salt,
		Hash:        hash,
	}, nil
}

// Params returns the parameters new bindings are derived with.
func (h *Argon2Hasher) Params() domain.Params {
	return h.params
}

// Verify re-derives the hash with the binding's own parameters and compares in
// constant time.
func (h *Argon2Hasher) Verify(password string, binding domain.Binding) bool {
	if len(binding.Salt) == 0 || len(binding.Hash) == 0 {
		return false
	}

	derived, err := derive([]byte(password), binding.Salt, binding.Params(), len(binding.Hash))
	if err != nil {
		return false
	}
	defer domain.Zero(derived)

	return subtle.ConstantTimeCompare(derived, binding.Hash) == 1
}

func derive(password, salt []byte, params Params, keyLen int) (key []byte, err error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if keyLen <= 0 || keyLen > 1024 {
		return nil, fmt.Errorf("%w: key length %d out of range", domain.ErrLibraryFailure, keyLen)
	}

	defer func() {
		if r := recover(); r != nil {
			key = nil
			err = fmt.Errorf("%w: %v", domain.ErrLibraryFailure, r)
		}
	}()

	return argon2.IDKey(
		password,
		salt,
		params.Iterations,
		params.Memory,
		uint8(params.Parallelism), //nolint:gosec // bounded by Params.Validate
		uint32(keyLen),            //nolint:gosec // bounded above
	), nil
}
