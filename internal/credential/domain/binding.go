// Package domain defines the credential binding produced by the password hasher.
//
// A binding carries every Argon2id parameter alongside the salt and derived hash, so a
// binding created under older defaults still verifies after the defaults change.
package domain

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// Binding is the persisted record of a password's KDF parameters, salt and derived hash.
// It is immutable once created by the hasher.
type Binding struct {
	Version     uint32 // Argon2 version tag (0x13)
	Memory      uint32 // Memory cost in KiB
	Iterations  uint32 // Number of passes over memory
	Parallelism uint32 // Number of lanes
	Salt        []byte // Random salt, SaltLength bytes for new bindings
	Hash        []byte // Derived key, KeyLength bytes for new bindings
}

// Params returns the KDF parameters recorded in the binding.
func (b Binding) Params() Params {
	return Params{
		Version:     b.Version,
		Memory:      b.Memory,
		Iterations:  b.Iterations,
		Parallelism: b.Parallelism,
	}
}

// Equal reports whether two bindings are byte-equal in every field.
func (b Binding) Equal(other Binding) bool {
	return b.Params() == other.Params() &&
		bytes.Equal(b.Salt, other.Salt) &&
		bytes.Equal(b.Hash, other.Hash)
}

// bindingJSON is the wire representation: numeric parameters plus hex-encoded bytes.
type bindingJSON struct {
	Version     uint32 `json:"v"`
	Memory      uint32 `json:"m"`
	Iterations  uint32 `json:"t"`
	Parallelism uint32 `json:"p"`
	Salt        string `json:"salt"`
	Hash        string `json:"hash"`
}

// MarshalJSON encodes the binding as {"v","m","t","p","salt","hash"} with hex bytes.
func (b Binding) MarshalJSON() ([]byte, error) {
	return json.Marshal(bindingJSON{
		Version:     b.Version,
		Memory:      b.Memory,
		Iterations:  b.Iterations,
		Parallelism: b.Parallelism,
		Salt:        hex.EncodeToString(b.Salt),
		Hash:        hex.EncodeToString(b.Hash),
	})
}

// UnmarshalJSON decodes the wire representation. Salt and hash must be non-empty hex.
func (b *Binding) UnmarshalJSON(data []byte) error {
	var raw bindingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperrors.Wrap(ErrMalformedBinding, err.Error())
	}

	salt, err := hex.DecodeString(raw.Salt)
	if err != nil || len(salt) == 0 {
		return apperrors.Wrap(ErrMalformedBinding, "salt must be non-empty hex")
	}

	hash, err := hex.DecodeString(raw.Hash)
	if err != nil || len(hash) == 0 {
		return apperrors.Wrap(ErrMalformedBinding, "hash must be non-empty hex")
	}

	*b = Binding{
		Version:     raw.Version,
		Memory:      raw.Memory,
		Iterations:  raw.Iterations,
		Parallelism: raw.Parallelism,
		Salt:        salt,
		Hash:        hash,
	}
	return nil
}
