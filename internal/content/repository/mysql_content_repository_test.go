package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/gatekeeper/internal/content/domain"
)

func newMySQLMock(t *testing.T) (*MySQLContentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewMySQLContentRepository(db), mock
}

func TestMySQLContentRepository_CreateAuthor(t *testing.T) {
	repo, mock := newMySQLMock(t)
	author := newTestAuthor("Ada")

	mock.ExpectExec("INSERT INTO authors").
		WithArgs(author.ID[:], "Ada", "bio of Ada", author.CreatedBy[:], sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateAuthor(context.Background(), author))
	assert.Equal(t, int64(1), author.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLContentRepository_GetAuthor(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_BinaryID", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		author := newTestAuthor("Ada")

		rows := sqlmock.NewRows(authorRowColumns).AddRow(
			author.ID[:], "Ada", "bio", author.CreatedBy[:], int64(1), author.CreatedAt, author.UpdatedAt,
		)
		mock.ExpectQuery("SELECT (.+) FROM authors WHERE id").WithArgs(author.ID[:]).WillReturnRows(rows)

		got, err := repo.GetAuthor(ctx, author.ID)
		require.NoError(t, err)
		assert.Equal(t, author.ID, got.ID)
		assert.Equal(t, author.CreatedBy, got.CreatedBy)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		mock.ExpectQuery("SELECT (.+) FROM authors").WillReturnRows(sqlmock.NewRows(authorRowColumns))

		_, err := repo.GetAuthor(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, domain.ErrAuthorNotFound)
	})
}

func TestMySQLContentRepository_UpdatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_BumpsVersion", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		post := newTestPost(uuid.Must(uuid.NewV7()), "first")
		post.Version = 1

		mock.ExpectExec("UPDATE posts").
			WithArgs("first", "content of first", sqlmock.AnyArg(), post.ID[:], int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdatePost(ctx, post))
		assert.Equal(t, int64(2), post.Version)
	})

	t.Run("Error_StaleVersion", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		mock.ExpectExec("UPDATE posts").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePost(ctx, newTestPost(uuid.Must(uuid.NewV7()), "first"))
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	})
}

func TestMySQLContentRepository_ForeignKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("DeleteReferencedAuthor", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		mock.ExpectExec("DELETE FROM authors").
			WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})

		_, err := repo.DeleteAuthor(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, domain.ErrAuthorHasPosts)
	})

	t.Run("PostForMissingAuthor", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		mock.ExpectExec("INSERT INTO posts").
			WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

		err := repo.CreatePost(ctx, newTestPost(uuid.Must(uuid.NewV7()), "first"))
		assert.ErrorIs(t, err, domain.ErrUnknownAuthor)
	})

	t.Run("OtherErrorPassesThrough", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		mock.ExpectExec("INSERT INTO posts").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

		err := repo.CreatePost(ctx, newTestPost(uuid.Must(uuid.NewV7()), "first"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrUnknownAuthor)
	})
}

func TestMySQLContentRepository_ListPostsByAuthor(t *testing.T) {
	repo, mock := newMySQLMock(t)
	authorID := uuid.Must(uuid.NewV7())
	post := newTestPost(authorID, "first")

	rows := sqlmock.NewRows(postRowColumns).AddRow(
		post.ID[:], authorID[:], "first", "body", post.CreatedBy[:], int64(1), post.CreatedAt, post.UpdatedAt,
	)
	mock.ExpectQuery("SELECT (.+) FROM posts WHERE author_id").WithArgs(authorID[:], 20, 0).WillReturnRows(rows)

	posts, err := repo.ListPosts(context.Background(), authorID, 0, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, authorID, posts[0].AuthorID)
}
