// Package http provides the author and post endpoints. Reads are open to any request;
// writes need a session and deletes need an admin attestation.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/content/http/dto"
	"github.com/allisson/gatekeeper/internal/content/usecase"
	"github.com/allisson/gatekeeper/internal/httputil"
	"github.com/allisson/gatekeeper/internal/policy"
	customValidation "github.com/allisson/gatekeeper/internal/validation"
)

// ContentHandler serves the author and post endpoints.
type ContentHandler struct {
	authorUseCase usecase.AuthorUseCase
	postUseCase   usecase.PostUseCase
	logger        *slog.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(
	authorUseCase usecase.AuthorUseCase,
	postUseCase usecase.PostUseCase,
	logger *slog.Logger,
) *ContentHandler {
	return &ContentHandler{
		authorUseCase: authorUseCase,
		postUseCase:   postUseCase,
		logger:        logger,
	}
}

// ListAuthorsHandler pages through authors.
// GET /v1/authors?offset=0&limit=50 - chain: request.
func (h *ContentHandler) ListAuthorsHandler(c *gin.Context, _ *policy.Context) {
	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	authors, err := h.authorUseCase.List(c.Request.Context(), page.Offset, page.Limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuthorsToListResponse(authors))
}

// GetAuthorHandler returns one author.
// GET /v1/authors/:id - chain: request.
func (h *ContentHandler) GetAuthorHandler(c *gin.Context, _ *policy.Context) {
	id, ok := h.parseID(c, "author")
	if !ok {
		return
	}

	author, err := h.authorUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuthorToResponse(author))
}

// CreateAuthorHandler creates an author owned by the caller.
// POST /v1/authors - chain: request, identity, validation.
// Returns 201 Created with the new author.
func (h *ContentHandler) CreateAuthorHandler(c *gin.Context, pc *policy.Context) {
	identity := policy.MustGet[policy.Identity](pc)

	var req dto.CreateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	author, err := h.authorUseCase.Create(c.Request.Context(), req.ToInput(identity.UserID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapAuthorToResponse(author))
}

// UpdateAuthorHandler patches an author.
// PUT /v1/authors/:id - chain: request, identity, validation.
func (h *ContentHandler) UpdateAuthorHandler(c *gin.Context, pc *policy.Context) {
	identity := policy.MustGet[policy.Identity](pc)

	id, ok := h.parseID(c, "author")
	if !ok {
		return
	}

	var req dto.UpdateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	author, err := h.authorUseCase.Update(c.Request.Context(), id, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("author updated",
		slog.String("author_id", author.ID.String()),
		slog.String("user_id", identity.UserID.String()),
	)
	c.JSON(http.StatusOK, dto.MapAuthorToResponse(author))
}

// DeleteAuthorHandler removes an author that has no posts.
// DELETE /v1/authors/:id - chain: request, identity, attestation:admin.
func (h *ContentHandler) DeleteAuthorHandler(c *gin.Context, pc *policy.Context) {
	identity := policy.MustGet[policy.Identity](pc)

	id, ok := h.parseID(c, "author")
	if !ok {
		return
	}

	if err := h.authorUseCase.Delete(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("author deleted",
		slog.String("author_id", id.String()),
		slog.String("user_id", identity.UserID.String()),
	)
	c.Status(http.StatusNoContent)
}

// ListPostsHandler pages through posts, optionally for one author.
// GET /v1/posts?author_id=<uuid>&offset=0&limit=50 - chain: request.
func (h *ContentHandler) ListPostsHandler(c *gin.Context, _ *policy.Context) {
	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	authorID := uuid.Nil
	if raw, ok := c.GetQuery("author_id"); ok {
		authorID, err = uuid.Parse(raw)
		if err != nil {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid author_id format: must be a valid UUID"), h.logger)
			return
		}
	}

	posts, err := h.postUseCase.List(c.Request.Context(), authorID, page.Offset, page.Limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPostsToListResponse(posts))
}

// GetPostHandler returns one post.
// GET /v1/posts/:id - chain: request.
func (h *ContentHandler) GetPostHandler(c *gin.Context, _ *policy.Context) {
	id, ok := h.parseID(c, "post")
	if !ok {
		return
	}

	post, err := h.postUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPostToResponse(post))
}

// CreatePostHandler creates a post for an existing author.
// POST /v1/posts - chain: request, identity, validation.
// Returns 201 Created with the new post.
func (h *ContentHandler) CreatePostHandler(c *gin.Context, pc *policy.Context) {
	identity := policy.MustGet[policy.Identity](pc)

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	post, err := h.postUseCase.Create(c.Request.Context(), req.ToInput(identity.UserID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapPostToResponse(post))
}

// UpdatePostHandler patches a post's title or content.
// PUT /v1/posts/:id - chain: request, identity, validation.
func (h *ContentHandler) UpdatePostHandler(c *gin.Context, pc *policy.Context) {
	identity := policy.MustGet[policy.Identity](pc)

	id, ok := h.parseID(c, "post")
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	post, err := h.postUseCase.Update(c.Request.Context(), id, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("post updated",
		slog.String("post_id", post.ID.String()),
		slog.String("user_id", identity.UserID.String()),
	)
	c.JSON(http.StatusOK, dto.MapPostToResponse(post))
}

// DeletePostHandler removes a post.
// DELETE /v1/posts/:id - chain: request, identity, attestation:admin.
func (h *ContentHandler) DeletePostHandler(c *gin.Context, pc *policy.Context) {
	identity := policy.MustGet[policy.Identity](pc)

	id, ok := h.parseID(c, "post")
	if !ok {
		return
	}

	if err := h.postUseCase.Delete(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("post deleted",
		slog.String("post_id", id.String()),
		slog.String("user_id", identity.UserID.String()),
	)
	c.Status(http.StatusNoContent)
}

// parseID reads the :id path parameter, writing a 422 response when it is not a UUID.
func (h *ContentHandler) parseID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid %s ID format: must be a valid UUID", resource), h.logger)
		return uuid.Nil, false
	}
	return id, true
}
