package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/content/domain"
	"github.com/allisson/gatekeeper/internal/database"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// MySQL error numbers for foreign key failures.
const (
	mysqlRowIsReferenced = 1451 // ER_ROW_IS_REFERENCED_2
	mysqlNoReferencedRow = 1452 // ER_NO_REFERENCED_ROW_2
)

// MySQLContentRepository handles author and post persistence for MySQL. IDs are stored
// as BINARY(16).
type MySQLContentRepository struct {
	db *sql.DB
}

// NewMySQLContentRepository creates a new MySQLContentRepository
func NewMySQLContentRepository(db *sql.DB) *MySQLContentRepository {
	return &MySQLContentRepository{
		db: db,
	}
}

// binaryID returns the BINARY(16) form of id.
func binaryID(id uuid.UUID) []byte {
	return id[:]
}

// CreateAuthor inserts a new author. The stored version is always 1.
func (r *MySQLContentRepository) CreateAuthor(ctx context.Context, author *domain.Author) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO authors (id, display_name, bio, created_by, version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, 1, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		binaryID(author.ID),
		author.DisplayName,
		author.Bio,
		binaryID(author.CreatedBy),
		author.CreatedAt,
		author.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create author")
	}
	author.Version = 1
	return nil
}

// UpdateAuthor saves an author if its stored version still equals author.Version.
func (r *MySQLContentRepository) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE authors
			  SET display_name = ?, bio = ?, updated_at = ?, version = version + 1
			  WHERE id = ? AND version = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		author.DisplayName,
		author.Bio,
		author.UpdatedAt,
		binaryID(author.ID),
		author.Version,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update author")
	}

	if err := checkVersionedUpdate(result); err != nil {
		return err
	}
	author.Version++
	return nil
}

// GetAuthor retrieves an author by ID
func (r *MySQLContentRepository) GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + authorColumns + ` FROM authors WHERE id = ?`

	return scanAuthor(querier.QueryRowContext(ctx, query, binaryID(id)))
}

// DeleteAuthor removes an author and reports whether a row existed.
func (r *MySQLContentRepository) DeleteAuthor(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM authors WHERE id = ?`, binaryID(id))
	if err != nil {
		if isMySQLError(err, mysqlRowIsReferenced) {
			return false, domain.ErrAuthorHasPosts
		}
		return false, apperrors.Wrap(err, "failed to delete author")
	}
	return rowsAffected(result)
}

// ListAuthors returns authors ordered by ID (creation order for UUIDv7).
func (r *MySQLContentRepository) ListAuthors(ctx context.Context, offset, limit int) ([]*domain.Author, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + authorColumns + ` FROM authors ORDER BY id ASC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list authors")
	}
	defer func() {
		_ = rows.Close()
	}()

	authors := make([]*domain.Author, 0)
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate authors")
	}
	return authors, nil
}

// CreatePost inserts a new post. An author_id with no author fails with ErrUnknownAuthor.
func (r *MySQLContentRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO posts (id, author_id, title, content, created_by, version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, 1, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		binaryID(post.ID),
		binaryID(post.AuthorID),
		post.Title,
		post.Content,
		binaryID(post.CreatedBy),
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		if isMySQLError(err, mysqlNoReferencedRow) {
			return domain.ErrUnknownAuthor
		}
		return apperrors.Wrap(err, "failed to create post")
	}
	post.Version = 1
	return nil
}

// UpdatePost saves a post if its stored version still equals post.Version.
func (r *MySQLContentRepository) UpdatePost(ctx context.Context, post *domain.Post) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE posts
			  SET title = ?, content = ?, updated_at = ?, version = version + 1
			  WHERE id = ? AND version = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		post.Title,
		post.Content,
		post.UpdatedAt,
		binaryID(post.ID),
		post.Version,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update post")
	}

	if err := checkVersionedUpdate(result); err != nil {
		return err
	}
	post.Version++
	return nil
}

// GetPost retrieves a post by ID
func (r *MySQLContentRepository) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

	return scanPost(querier.QueryRowContext(ctx, query, binaryID(id)))
}

// DeletePost removes a post and reports whether a row existed.
func (r *MySQLContentRepository) DeletePost(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, binaryID(id))
	if err != nil {
		return false, apperrors.Wrap(err, "failed to delete post")
	}
	return rowsAffected(result)
}

// ListPosts returns posts ordered by ID, restricted to authorID unless it is uuid.Nil.
func (r *MySQLContentRepository) ListPosts(
	ctx context.Context,
	authorID uuid.UUID,
	offset, limit int,
) ([]*domain.Post, error) {
	querier := database.GetTx(ctx, r.db)

	var (
		rows *sql.Rows
		err  error
	)
	if authorID == uuid.Nil {
		query := `SELECT ` + postColumns + ` FROM posts ORDER BY id ASC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT ` + postColumns + ` FROM posts WHERE author_id = ? ORDER BY id ASC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, binaryID(authorID), limit, offset)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list posts")
	}
	defer func() {
		_ = rows.Close()
	}()

	posts := make([]*domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate posts")
	}
	return posts, nil
}

// CountPostsByAuthor returns how many posts reference the author.
func (r *MySQLContentRepository) CountPostsByAuthor(ctx context.Context, authorID uuid.UUID) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = ?`, binaryID(authorID)).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count posts")
	}
	return count, nil
}

// Ping checks the connection for readiness probes.
func (r *MySQLContentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// isMySQLError checks if err is a MySQL error with the given number
func isMySQLError(err error, number uint16) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == number
}
