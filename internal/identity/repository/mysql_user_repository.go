package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/database"
	"github.com/allisson/gatekeeper/internal/identity/domain"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// mysqlDuplicateEntry is the MySQL error number for ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// MySQLUserRepository handles user persistence for MySQL. IDs are stored as BINARY(16).
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{
		db: db,
	}
}

// Create inserts a new user. The stored version is always 1.
func (r *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	binding, err := json.Marshal(user.Binding)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential binding")
	}

	query := `INSERT INTO users (id, username, credential_binding, is_admin, version, created_at)
			  VALUES (?, ?, ?, ?, 1, ?)`

	_, err = querier.ExecContext(ctx, query, id, user.Username, string(binding), user.IsAdmin, user.CreatedAt)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	user.Version = 1
	return nil
}

// Update saves an existing user if its stored version still equals user.Version, then
// bumps user.Version.
func (r *MySQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	binding, err := json.Marshal(user.Binding)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential binding")
	}

	query := `UPDATE users
			  SET username = ?, credential_binding = ?, is_admin = ?, version = version + 1
			  WHERE id = ? AND version = ?`

	result, err := querier.ExecContext(ctx, query, user.Username, string(binding), user.IsAdmin, id, user.Version)
	if err != nil {
		if isMySQLUniqueViolation(err) {
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
func (r *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT id, username, credential_binding, is_admin, version, created_at
			  FROM users WHERE id = ?`

	return scanMySQLUser(querier.QueryRowContext(ctx, query, uuidBytes))
}

// GetByUsername retrieves a user by username
func (r *MySQLUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, username, credential_binding, is_admin, version, created_at
			  FROM users WHERE username = ?`

	return scanMySQLUser(querier.QueryRowContext(ctx, query, username))
}

// Delete removes a user and reports whether a row existed.
func (r *MySQLUserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, uuidBytes)
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
func (r *MySQLUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, username, credential_binding, is_admin, version, created_at
			  FROM users ORDER BY id ASC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer func() {
		_ = rows.Close()
	}()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanMySQLUser(rows)
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
func (r *MySQLUserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanMySQLUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var idBytes, binding []byte

	err := row.Scan(&idBytes, &user.Username, &binding, &user.IsAdmin, &user.Version, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	// Convert bytes back to UUID
	if err := user.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	if err := json.Unmarshal(binding, &user.Binding); err != nil {
		return nil, apperrors.Wrap(domain.ErrCorruptRecord, err.Error())
	}
	return &user, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL duplicate entry error
func isMySQLUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
