// Package dto provides data transfer objects for the author and post endpoints.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"

	"github.com/allisson/gatekeeper/internal/content/usecase"
	customValidation "github.com/allisson/gatekeeper/internal/validation"
)

// CreateAuthorRequest is the body of POST /v1/authors.
type CreateAuthorRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

// Validate checks shape only; trimming happens in the use case.
func (r *CreateAuthorRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DisplayName,
			validation.Required,
			customValidation.NotBlank,
			validation.RuneLength(1, usecase.MaxDisplayNameLength),
		),
		validation.Field(&r.Bio, validation.RuneLength(0, usecase.MaxBioLength)),
	)
}

// ToInput converts the request to use case input.
func (r *CreateAuthorRequest) ToInput(createdBy uuid.UUID) usecase.CreateAuthorInput {
	return usecase.CreateAuthorInput{
		DisplayName: r.DisplayName,
		Bio:         r.Bio,
		CreatedBy:   createdBy,
	}
}

// UpdateAuthorRequest is the body of PUT /v1/authors/:id. Omitted fields are left unchanged.
type UpdateAuthorRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Version     *int64  `json:"version"`
}

// Validate checks the fields that are present.
func (r *UpdateAuthorRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DisplayName,
			validation.NilOrNotEmpty,
			customValidation.NotBlank,
			validation.RuneLength(1, usecase.MaxDisplayNameLength),
		),
		validation.Field(&r.Bio, validation.RuneLength(0, usecase.MaxBioLength)),
		validation.Field(&r.Version, validation.NilOrNotEmpty, validation.Min(int64(1))),
	)
}

// ToInput converts the request to use case input.
func (r *UpdateAuthorRequest) ToInput() usecase.UpdateAuthorInput {
	return usecase.UpdateAuthorInput{
		DisplayName: r.DisplayName,
		Bio:         r.Bio,
		Version:     r.Version,
	}
}

// CreatePostRequest is the body of POST /v1/posts.
type CreatePostRequest struct {
	AuthorID string `json:"author_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// Validate checks shape only; the author's existence is checked by the use case.
func (r *CreatePostRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.AuthorID, validation.Required, is.UUID),
		validation.Field(&r.Title,
			validation.Required,
			customValidation.NotBlank,
			validation.RuneLength(1, usecase.MaxTitleLength),
		),
		validation.Field(&r.Content,
			validation.Required,
			customValidation.NotBlank,
			validation.RuneLength(1, usecase.MaxContentLength),
		),
	)
}

// ToInput converts the request to use case input. An unparsable author_id becomes
// uuid.Nil, which the use case rejects.
func (r *CreatePostRequest) ToInput(createdBy uuid.UUID) usecase.CreatePostInput {
	authorID, err := uuid.Parse(r.AuthorID)
	if err != nil {
		authorID = uuid.Nil
	}
	return usecase.CreatePostInput{
		AuthorID:  authorID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedBy: createdBy,
	}
}

// UpdatePostRequest is the body of PUT /v1/posts/:id. A post's author cannot be changed.
type UpdatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Version *int64  `json:"version"`
}

// Validate checks the fields that are present.
func (r *UpdatePostRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title,
			validation.NilOrNotEmpty,
			customValidation.NotBlank,
			validation.RuneLength(1, usecase.MaxTitleLength),
		),
		validation.Field(&r.Content,
			validation.NilOrNotEmpty,
			customValidation.NotBlank,
			validation.RuneLength(1, usecase.MaxContentLength),
		),
		validation.Field(&r.Version, validation.NilOrNotEmpty, validation.Min(int64(1))),
	)
}

// ToInput converts the request to use case input.
func (r *UpdatePostRequest) ToInput() usecase.UpdatePostInput {
	return usecase.UpdatePostInput{
		Title:   r.Title,
		Content: r.Content,
		Version: r.Version,
	}
}
