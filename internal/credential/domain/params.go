package domain

import (
	"fmt"
	"math"
)

const (
	// Argon2Version is the only Argon2 version tag the hasher derives with (v1.3).
	Argon2Version uint32 = 0x13

	// SaltLength is the size in bytes of the salt generated for new bindings.
	SaltLength = 16

	// KeyLength is the size in bytes of the hash derived for new bindings.
	KeyLength = 32

	// DefaultMemory is the default memory cost in KiB (64 MiB).
	DefaultMemory uint32 = 64 * 1024

	// DefaultIterations is the default number of passes.
	DefaultIterations uint32 = 3

	// DefaultParallelism is the default number of lanes.
	DefaultParallelism uint32 = 4

	// MaxMemory caps the memory cost accepted from a stored binding (1 GiB).
	MaxMemory uint32 = 1024 * 1024

	// MaxIterations caps the pass count accepted from a stored binding.
	MaxIterations uint32 = 64
)

// Params holds the Argon2id cost parameters.
type Params struct {
	Version     uint32
	Memory      uint32
	Iterations  uint32
	Parallelism uint32
}

// DefaultParams returns the recommended parameters: v1.3, 64 MiB, 3 passes, 4 lanes.
func DefaultParams() Params {
	return Params{
		Version:     Argon2Version,
		Memory:      DefaultMemory,
		Iterations:  DefaultIterations,
		Parallelism: DefaultParallelism,
	}
}

// Validate reports whether the KDF can run with these parameters.
// The returned error wraps ErrLibraryFailure.
func (p Params) Validate() error {
	switch {
	case p.Version != Argon2Version:
		return fmt.Errorf("%w: unsupported argon2 version 0x%x", ErrLibraryFailure, p.Version)
	case p.Iterations == 0 || p.Iterations > MaxIterations:
		return fmt.Errorf("%w: iterations must be between 1 and %d", ErrLibraryFailure, MaxIterations)
	case p.Parallelism == 0 || p.Parallelism > math.MaxUint8:
		return fmt.Errorf("%w: parallelism must be between 1 and %d", ErrLibraryFailure, math.MaxUint8)
	case p.Memory < 8*p.Parallelism || p.Memory > MaxMemory:
		return fmt.Errorf(
			"%w: memory must be between %d and %d KiB",
			ErrLibraryFailure,
			8*p.Parallelism,
			MaxMemory,
		)
	}
	return nil
}

// WeakerThan reports whether any cost parameter of p is below the one in other.
func (p Params) WeakerThan(other Params) bool {
	return p.Memory < other.Memory ||
		p.Iterations < other.Iterations ||
		p.Parallelism < other.Parallelism
}
