// Package repository provides identity record stores: one JSON file per record, or a
// users table in PostgreSQL or MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/gatekeeper/internal/database"
	"github.com/allisson/gatekeeper/internal/identity/domain"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgreSQLUserRepository handles user persistence for PostgreSQL
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{
		db: db,
	}
}

// Create inserts a new user. The stored version is always 1.
func (r *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	binding, err := json.Marshal(user.Binding)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential binding")
	}

	query := `INSERT INTO users (id, username, credential_binding, is_admin, version, created_at)
			  VALUES ($1, $2, $3, $4, 1, $5)`

	_, err = querier.ExecContext(ctx, query, user.ID, user.Username, string(binding), user.IsAdmin, user.CreatedAt)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	user.Version = 1
	return nil
}

// Update saves an existing user if its stored version still equals user.Version, then
// bumps user.Version.
func (r *PostgreSQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	binding, err := json.Marshal(user.Binding)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential binding")
	}

	query := `UPDATE users
			  SET username = $1, credential_binding = $2, is_admin = $3, version = version + 1
			  WHERE id = $4 AND version = $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		user.Username,
		string(binding),
		user.IsAdmin,
		user.ID,
		user.Version,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return apperrors.Wrap(err, "failed to update user")
	}

	if err := checkVersionedUpdate(result); err != nil {
		return err
	}
	user.Version++
	return nil
}

// GetByID retrieves a user by ID
func (r *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, username, credential_binding, is_admin, version, created_at
			  FROM users WHERE id = $1`

	return scanPostgreSQLUser(querier.QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a user by username
func (r *PostgreSQLUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, username, credential_binding, is_admin, version, created_at
			  FROM users WHERE username = $1`

	return scanPostgreSQLUser(querier.QueryRowContext(ctx, query, username))
}

// Delete removes a user and reports whether a row existed.
func (r *PostgreSQLUserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to delete user")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get rows affected")
	}
	return affected > 0, nil
}

// List returns users ordered by ID (creation order for UUIDv7).
func (r *PostgreSQLUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, username, credential_binding, is_admin, version, created_at
			  FROM users ORDER BY id ASC LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer func() {
		_ = rows.Close()
	}()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanPostgreSQLUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate users")
	}
	return users, nil
}

// Ping checks the connection for readiness probes.
func (r *PostgreSQLUserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgreSQLUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var binding []byte

	err := row.Scan(&user.ID, &user.Username, &binding, &user.IsAdmin, &user.Version, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	if err := json.Unmarshal(binding, &user.Binding); err != nil {
		return nil, apperrors.Wrap(domain.ErrCorruptRecord, err.Error())
	}
	return &user, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
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
