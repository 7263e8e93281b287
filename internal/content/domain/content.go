// Package domain defines the author and post records served by the content endpoints.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/errors"
)

// Author is a named writer that posts belong to.
type Author struct {
	ID          uuid.UUID // Time-ordered identifier (UUIDv7)
	DisplayName string
	Bio         string
	CreatedBy   uuid.UUID // Account that created the record
	Version     int64     // 1 on creation, incremented on every save
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Post is an article written by an Author. AuthorID is fixed at creation.
type Post struct {
	ID        uuid.UUID
	AuthorID  uuid.UUID
	Title     string
	Content   string
	CreatedBy uuid.UUID
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// authorJSON is the file encoding of an Author. Timestamps are Unix milliseconds.
type authorJSON struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	CreatedBy   uuid.UUID `json:"created_by"`
	Version     int64     `json:"version"`
	CreatedAt   int64     `json:"created_at"`
	UpdatedAt   int64     `json:"updated_at"`
}

// MarshalJSON encodes the record for the file store.
func (a Author) MarshalJSON() ([]byte, error) {
	return json.Marshal(authorJSON{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Bio:         a.Bio,
		CreatedBy:   a.CreatedBy,
		Version:     a.Version,
		CreatedAt:   a.CreatedAt.UnixMilli(),
		UpdatedAt:   a.UpdatedAt.UnixMilli(),
	})
}

// UnmarshalJSON decodes a record written by MarshalJSON.
func (a *Author) UnmarshalJSON(data []byte) error {
	var raw authorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(ErrCorruptRecord, err.Error())
	}
	if raw.ID == uuid.Nil {
		return errors.Wrap(ErrCorruptRecord, "author record has no id")
	}
	*a = Author{
		ID:          raw.ID,
		DisplayName: raw.DisplayName,
		Bio:         raw.Bio,
		CreatedBy:   raw.CreatedBy,
		Version:     raw.Version,
		CreatedAt:   time.UnixMilli(raw.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(raw.UpdatedAt).UTC(),
	}
	return nil
}

type postJSON struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy uuid.UUID `json:"created_by"`
	Version   int64     `json:"version"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

// MarshalJSON encodes the record for the file store.
func (p Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(postJSON{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedBy: p.CreatedBy,
		Version:   p.Version,
		CreatedAt: p.CreatedAt.UnixMilli(),
		UpdatedAt: p.UpdatedAt.UnixMilli(),
	})
}

// UnmarshalJSON decodes a record written by MarshalJSON.
func (p *Post) UnmarshalJSON(data []byte) error {
	var raw postJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(ErrCorruptRecord, err.Error())
	}
	if raw.ID == uuid.Nil || raw.AuthorID == uuid.Nil {
		return errors.Wrap(ErrCorruptRecord, "post record is missing an id")
	}
	*p = Post{
		ID:        raw.ID,
		AuthorID:  raw.AuthorID,
		Title:     raw.Title,
		Content:   raw.Content,
		CreatedBy: raw.CreatedBy,
		Version:   raw.Version,
		CreatedAt: time.UnixMilli(raw.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(raw.UpdatedAt).UTC(),
	}
	return nil
}

// Domain-specific errors for content operations.
var (
	// ErrAuthorNotFound indicates the requested author does not exist.
	ErrAuthorNotFound = errors.Wrap(errors.ErrNotFound, "author not found")

	// ErrPostNotFound indicates the requested post does not exist.
	ErrPostNotFound = errors.Wrap(errors.ErrNotFound, "post not found")

	// ErrUnknownAuthor indicates a post references an author that does not exist.
	ErrUnknownAuthor = errors.Wrap(errors.ErrInvalidInput, "author_id does not match an author")

	// ErrAuthorHasPosts indicates an author cannot be deleted while posts reference it.
	ErrAuthorHasPosts = errors.Wrap(errors.ErrConflict, "author still has posts")

	// ErrVersionConflict indicates the record was missing or saved by someone else since it was read.
	ErrVersionConflict = errors.Wrap(errors.ErrConflict, "content record was modified concurrently")

	// ErrCorruptRecord indicates a stored record couldn't be decoded.
	ErrCorruptRecord = errors.New("corrupt content record")
)
