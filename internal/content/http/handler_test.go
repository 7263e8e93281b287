package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/gatekeeper/internal/content/domain"
	"github.com/allisson/gatekeeper/internal/content/http/dto"
	"github.com/allisson/gatekeeper/internal/content/usecase"
	"github.com/allisson/gatekeeper/internal/policy"
)

type testServer struct {
	router  *gin.Engine
	authors *mockAuthorUseCase
	posts   *mockPostUseCase
}

// setupServer wires the handlers behind the same chains the server uses.
func setupServer(t *testing.T, caller *policy.Identity) *testServer {
	t.Helper()
	logger := createTestLogger()
	authors := &mockAuthorUseCase{}
	posts := &mockPostUseCase{}
	handler := NewContentHandler(authors, posts, logger)
	registry := policy.DefaultRegistry(staticIdentity{identity: caller}, logger)

	read := policy.MustChain(registry, policy.KindRequest)
	write := policy.MustChain(registry, policy.KindRequest, policy.KindIdentity, policy.KindValidation)
	remove := policy.MustChain(registry,
		policy.KindRequest, policy.KindIdentity, policy.AttestationKind[policy.Admin]())

	router := gin.New()
	router.GET("/v1/authors", policy.Gate(read, handler.ListAuthorsHandler, logger))
	router.GET("/v1/authors/:id", policy.Gate(read, handler.GetAuthorHandler, logger))
	router.POST("/v1/authors", policy.Gate(write, handler.CreateAuthorHandler, logger))
	router.PUT("/v1/authors/:id", policy.Gate(write, handler.UpdateAuthorHandler, logger))
	router.DELETE("/v1/authors/:id", policy.Gate(remove, handler.DeleteAuthorHandler, logger))
	router.GET("/v1/posts", policy.Gate(read, handler.ListPostsHandler, logger))
	router.GET("/v1/posts/:id", policy.Gate(read, handler.GetPostHandler, logger))
	router.POST("/v1/posts", policy.Gate(write, handler.CreatePostHandler, logger))
	router.PUT("/v1/posts/:id", policy.Gate(write, handler.UpdatePostHandler, logger))
	router.DELETE("/v1/posts/:id", policy.Gate(remove, handler.DeletePostHandler, logger))

	return &testServer{router: router, authors: authors, posts: posts}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		_ = json.NewEncoder(&buf).Encode(v)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func member() *policy.Identity {
	return &policy.Identity{UserID: uuid.Must(uuid.NewV7()), Username: "ada", Role: policy.RoleMember}
}

func admin() *policy.Identity {
	return &policy.Identity{UserID: uuid.Must(uuid.NewV7()), Username: "root", Role: policy.RoleAdmin}
}

func newAuthor() *domain.Author {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Author{
		ID:          uuid.Must(uuid.NewV7()),
		DisplayName: "Ada Lovelace",
		Bio:         "Analyst",
		CreatedBy:   uuid.Must(uuid.NewV7()),
		Version:     1,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func newPost(authorID uuid.UUID) *domain.Post {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Post{
		ID:        uuid.Must(uuid.NewV7()),
		AuthorID:  authorID,
		Title:     "Notes",
		Content:   "On the engine",
		CreatedBy: uuid.Must(uuid.NewV7()),
		Version:   1,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestContentHandler_ReadAuthors(t *testing.T) {
	t.Run("List_Anonymous", func(t *testing.T) {
		s := setupServer(t, nil)
		s.authors.On("List", mock.Anything, 10, 5).Return([]*domain.Author{newAuthor()}, nil).Once()

		w := s.do(http.MethodGet, "/v1/authors?offset=10&limit=5", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.ListAuthorsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 1)
	})

	t.Run("List_BadPage", func(t *testing.T) {
		s := setupServer(t, nil)
		w := s.do(http.MethodGet, "/v1/authors?limit=0", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.authors.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Get_Success", func(t *testing.T) {
		s := setupServer(t, nil)
		author := newAuthor()
		s.authors.On("Get", mock.Anything, author.ID).Return(author, nil).Once()

		w := s.do(http.MethodGet, "/v1/authors/"+author.ID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.AuthorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Ada Lovelace", resp.DisplayName)
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		s := setupServer(t, nil)
		s.authors.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrAuthorNotFound).Once()

		w := s.do(http.MethodGet, "/v1/authors/"+uuid.Must(uuid.NewV7()).String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Get_MalformedID", func(t *testing.T) {
		s := setupServer(t, nil)
		w := s.do(http.MethodGet, "/v1/authors/not-a-uuid", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		s.authors.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestContentHandler_CreateAuthor(t *testing.T) {
	t.Run("Success_OwnedByCaller", func(t *testing.T) {
		caller := member()
		s := setupServer(t, caller)
		author := newAuthor()
		s.authors.On("Create", mock.Anything, usecase.CreateAuthorInput{
			DisplayName: "Ada Lovelace",
			Bio:         "Analyst",
			CreatedBy:   caller.UserID,
		}).Return(author, nil).Once()

		w := s.do(http.MethodPost, "/v1/authors", dto.CreateAuthorRequest{DisplayName: "Ada Lovelace", Bio: "Analyst"})

		require.Equal(t, http.StatusCreated, w.Code)
		s.authors.AssertExpectations(t)
	})

	t.Run("Error_NoSession", func(t *testing.T) {
		s := setupServer(t, nil)
		w := s.do(http.MethodPost, "/v1/authors", dto.CreateAuthorRequest{DisplayName: "Ada"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		s.authors.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error_MalformedBody", func(t *testing.T) {
		s := setupServer(t, member())
		w := s.do(http.MethodPost, "/v1/authors", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_MissingDisplayName", func(t *testing.T) {
		s := setupServer(t, member())
		w := s.do(http.MethodPost, "/v1/authors", dto.CreateAuthorRequest{Bio: "Analyst"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestContentHandler_UpdateAuthor(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := setupServer(t, member())
		author := newAuthor()
		name := "Augusta Ada"
		version := int64(1)
		s.authors.On("Update", mock.Anything, author.ID, usecase.UpdateAuthorInput{
			DisplayName: &name,
			Version:     &version,
		}).Return(author, nil).Once()

		w := s.do(http.MethodPut, "/v1/authors/"+author.ID.String(), dto.UpdateAuthorRequest{
			DisplayName: &name,
			Version:     &version,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		s.authors.AssertExpectations(t)
	})

	t.Run("Error_Conflict", func(t *testing.T) {
		s := setupServer(t, member())
		s.authors.On("Update", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domain.ErrVersionConflict).Once()

		w := s.do(http.MethodPut, "/v1/authors/"+uuid.Must(uuid.NewV7()).String(), map[string]any{"bio": "x"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestContentHandler_DeleteAuthor(t *testing.T) {
	id := uuid.Must(uuid.NewV7())

	t.Run("Success_Admin", func(t *testing.T) {
		s := setupServer(t, admin())
		s.authors.On("Delete", mock.Anything, id).Return(nil).Once()

		w := s.do(http.MethodDelete, "/v1/authors/"+id.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Error_Member", func(t *testing.T) {
		s := setupServer(t, member())
		w := s.do(http.MethodDelete, "/v1/authors/"+id.String(), nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		s.authors.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Error_HasPosts", func(t *testing.T) {
		s := setupServer(t, admin())
		s.authors.On("Delete", mock.Anything, id).Return(domain.ErrAuthorHasPosts).Once()

		w := s.do(http.MethodDelete, "/v1/authors/"+id.String(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestContentHandler_Posts(t *testing.T) {
	authorID := uuid.Must(uuid.NewV7())

	t.Run("List_ByAuthor", func(t *testing.T) {
		s := setupServer(t, nil)
		s.posts.On("List", mock.Anything, authorID, 0, 50).Return([]*domain.Post{newPost(authorID)}, nil).Once()

		w := s.do(http.MethodGet, "/v1/posts?author_id="+authorID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.ListPostsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, authorID.String(), resp.Data[0].AuthorID)
	})

	t.Run("List_All", func(t *testing.T) {
		s := setupServer(t, nil)
		s.posts.On("List", mock.Anything, uuid.Nil, 0, 50).Return([]*domain.Post{}, nil).Once()

		w := s.do(http.MethodGet, "/v1/posts", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":[]}`, w.Body.String())
	})

	t.Run("List_MalformedAuthor", func(t *testing.T) {
		s := setupServer(t, nil)
		w := s.do(http.MethodGet, "/v1/posts?author_id=ada", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Create_Success", func(t *testing.T) {
		caller := member()
		s := setupServer(t, caller)
		post := newPost(authorID)
		s.posts.On("Create", mock.Anything, usecase.CreatePostInput{
			AuthorID:  authorID,
			Title:     "Notes",
			Content:   "On the engine",
			CreatedBy: caller.UserID,
		}).Return(post, nil).Once()

		w := s.do(http.MethodPost, "/v1/posts", dto.CreatePostRequest{
			AuthorID: authorID.String(),
			Title:    "Notes",
			Content:  "On the engine",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		var resp dto.PostResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, post.ID.String(), resp.ID)
	})

	t.Run("Create_UnknownAuthor", func(t *testing.T) {
		s := setupServer(t, member())
		s.posts.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrUnknownAuthor).Once()

		w := s.do(http.MethodPost, "/v1/posts", dto.CreatePostRequest{
			AuthorID: authorID.String(),
			Title:    "Notes",
			Content:  "body",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Update_NotFound", func(t *testing.T) {
		s := setupServer(t, member())
		s.posts.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrPostNotFound).Once()

		w := s.do(http.MethodPut, "/v1/posts/"+uuid.Must(uuid.NewV7()).String(), map[string]any{"title": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Get_MalformedID", func(t *testing.T) {
		s := setupServer(t, nil)
		w := s.do(http.MethodGet, "/v1/posts/123", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Delete_Admin", func(t *testing.T) {
		s := setupServer(t, admin())
		id := uuid.Must(uuid.NewV7())
		s.posts.On("Delete", mock.Anything, id).Return(nil).Once()

		w := s.do(http.MethodDelete, "/v1/posts/"+id.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Delete_NoSession", func(t *testing.T) {
		s := setupServer(t, nil)
		w := s.do(http.MethodDelete, "/v1/posts/"+uuid.Must(uuid.NewV7()).String(), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
