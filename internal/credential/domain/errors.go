package domain

import (
	"errors"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// Credential hasher errors.
var (
	// ErrEntropyFailure indicates secure randomness was unavailable while generating a salt.
	ErrEntropyFailure = errors.New("entropy source failure")

	// ErrLibraryFailure indicates the KDF could not be invoked with the given parameters.
	ErrLibraryFailure = errors.New("kdf library failure")

	// ErrMalformedBinding indicates a stored binding could not be decoded.
	ErrMalformedBinding = apperrors.Wrap(apperrors.ErrInvalidInput, "malformed credential binding")
)
