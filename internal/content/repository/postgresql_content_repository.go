package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/gatekeeper/internal/content/domain"
	"github.com/allisson/gatekeeper/internal/database"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// pgForeignKeyViolation is the SQLSTATE for foreign_key_violation.
const pgForeignKeyViolation = "23503"

const (
	authorColumns = `id, display_name, bio, created_by, version, created_at, updated_at`
	postColumns   = `id, author_id, title, content, created_by, version, created_at, updated_at`
)

// PostgreSQLContentRepository handles author and post persistence for PostgreSQL
type PostgreSQLContentRepository struct {
	db *sql.DB
}

// NewPostgreSQLContentRepository creates a new PostgreSQLContentRepository
func NewPostgreSQLContentRepository(db *sql.DB) *PostgreSQLContentRepository {
	return &PostgreSQLContentRepository{
		db: db,
	}
}

// CreateAuthor inserts a new author. The stored version is always 1.
func (r *PostgreSQLContentRepository) CreateAuthor(ctx context.Context, author *domain.Author) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO authors (id, display_name, bio, created_by, version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, 1, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		author.ID,
		author.DisplayName,
		author.Bio,
		author.CreatedBy,
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
func (r *PostgreSQLContentRepository) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE authors
			  SET display_name = $1, bio = $2, updated_at = $3, version = version + 1
			  WHERE id = $4 AND version = $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		author.DisplayName,
		author.Bio,
		author.UpdatedAt,
		author.ID,
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
func (r *PostgreSQLContentRepository) GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + authorColumns + ` FROM authors WHERE id = $1`

	return scanAuthor(querier.QueryRowContext(ctx, query, id))
}

// DeleteAuthor removes an author and reports whether a row existed. A post still
// referencing the author fails with ErrAuthorHasPosts.
func (r *PostgreSQLContentRepository) DeleteAuthor(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		if isPostgreSQLForeignKeyViolation(err) {
			return false, domain.ErrAuthorHasPosts
		}
		return false, apperrors.Wrap(err, "failed to delete author")
	}
	return rowsAffected(result)
}

// ListAuthors returns authors ordered by ID (creation order for UUIDv7).
func (r *PostgreSQLContentRepository) ListAuthors(ctx context.Context, offset, limit int) ([]*domain.Author, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + authorColumns + ` FROM authors ORDER BY id ASC LIMIT $1 OFFSET $2`

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
func (r *PostgreSQLContentRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO posts (id, author_id, title, content, created_by, version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, 1, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		post.ID,
		post.AuthorID,
		post.Title,
		post.Content,
		post.CreatedBy,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		if isPostgreSQLForeignKeyViolation(err) {
			return domain.ErrUnknownAuthor
		}
		return apperrors.Wrap(err, "failed to create post")
	}
	post.Version = 1
	return nil
}

// UpdatePost saves a post if its stored version still equals post.Version.
func (r *PostgreSQLContentRepository) UpdatePost(ctx context.Context, post *domain.Post) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE posts
			  SET title = $1, content = $2, updated_at = $3, version = version + 1
			  WHERE id = $4 AND version = $5`

	result, err := querier.ExecContext(ctx, query, post.Title, post.Content, post.UpdatedAt, post.ID, post.Version)
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
func (r *PostgreSQLContentRepository) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	return scanPost(querier.QueryRowContext(ctx, query, id))
}

// DeletePost removes a post and reports whether a row existed.
func (r *PostgreSQLContentRepository) DeletePost(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to delete post")
	}
	return rowsAffected(result)
}

// ListPosts returns posts ordered by ID, restricted to authorID unless it is uuid.Nil.
func (r *PostgreSQLContentRepository) ListPosts(
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
		query := `SELECT ` + postColumns + ` FROM posts ORDER BY id ASC LIMIT $1 OFFSET $2`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT ` + postColumns + ` FROM posts WHERE author_id = $1 ORDER BY id ASC LIMIT $2 OFFSET $3`
		rows, err = querier.QueryContext(ctx, query, authorID, limit, offset)
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
func (r *PostgreSQLContentRepository) CountPostsByAuthor(ctx context.Context, authorID uuid.UUID) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = $1`, authorID).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count posts")
	}
	return count, nil
}

// Ping checks the connection for readiness probes.
func (r *PostgreSQLContentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanAuthor reads one author row. BINARY(16) and UUID columns both scan into uuid.UUID.
func scanAuthor(row rowScanner) (*domain.Author, error) {
	var author domain.Author

	err := row.Scan(
		&author.ID,
		&author.DisplayName,
		&author.Bio,
		&author.CreatedBy,
		&author.Version,
		&author.CreatedAt,
		&author.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuthorNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get author")
	}
	return &author, nil
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var post domain.Post

	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Content,
		&post.CreatedBy,
		&post.Version,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get post")
	}
	return &post, nil
}

// isPostgreSQLForeignKeyViolation checks if the error is a PostgreSQL foreign key violation
func isPostgreSQLForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation
}

// checkVersionedUpdate maps a zero-row versioned update to ErrVersionConflict.
func checkVersionedUpdate(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func rowsAffected(result sql.Result) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get rows affected")
	}
	return affected > 0, nil
}
