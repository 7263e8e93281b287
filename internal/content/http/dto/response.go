package dto

import (
	"time"

	"github.com/allisson/gatekeeper/internal/content/domain"
)

// AuthorResponse is the public view of an author.
type AuthorResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	CreatedBy   string    `json:"created_by"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostResponse is the public view of a post.
type PostResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListAuthorsResponse wraps a page of authors.
type ListAuthorsResponse struct {
	Data []AuthorResponse `json:"data"`
}

// ListPostsResponse wraps a page of posts.
type ListPostsResponse struct {
	Data []PostResponse `json:"data"`
}

// MapAuthorToResponse converts a domain author to its public view.
func MapAuthorToResponse(author *domain.Author) AuthorResponse {
	return AuthorResponse{
		ID:          author.ID.String(),
		DisplayName: author.DisplayName,
		Bio:         author.Bio,
		CreatedBy:   author.CreatedBy.String(),
		Version:     author.Version,
		CreatedAt:   author.CreatedAt,
		UpdatedAt:   author.UpdatedAt,
	}
}

// MapPostToResponse converts a domain post to its public view.
func MapPostToResponse(post *domain.Post) PostResponse {
	return PostResponse{
		ID:        post.ID.String(),
		AuthorID:  post.AuthorID.String(),
		Title:     post.Title,
		Content:   post.Content,
		CreatedBy: post.CreatedBy.String(),
		Version:   post.Version,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

// MapAuthorsToListResponse converts a page of authors.
func MapAuthorsToListResponse(authors []*domain.Author) ListAuthorsResponse {
	data := make([]AuthorResponse, 0, len(authors))
	for _, author := range authors {
		data = append(data, MapAuthorToResponse(author))
	}
	return ListAuthorsResponse{Data: data}
}

// MapPostsToListResponse converts a page of posts.
func MapPostsToListResponse(posts []*domain.Post) ListPostsResponse {
	data := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		data = append(data, MapPostToResponse(post))
	}
	return ListPostsResponse{Data: data}
}
