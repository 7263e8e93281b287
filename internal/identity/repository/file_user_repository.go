package repository

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/identity/domain"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// identitiesDir is the subdirectory of the store root holding one file per record.
const identitiesDir = "identities"

// FileUserRepository stores each user as <hex-id>.json under <root>/identities.
// Writes go through a temp file and rename so readers never see a partial record.
// Scans skip records that cannot be decoded; GetByID reports them as ErrCorruptRecord.
type FileUserRepository struct {
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex
	txMu   sync.Mutex
}

// NewFileUserRepository creates the identities directory under root if needed.
func NewFileUserRepository(root string, logger *slog.Logger) (*FileUserRepository, error) {
	dir := filepath.Join(root, identitiesDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperrors.Wrap(err, "failed to create identity store directory")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileUserRepository{dir: dir, logger: logger}, nil
}

// WithTx runs fn while holding the store's transaction lock, so read-modify-write
// sequences from concurrent callers don't interleave. It satisfies database.TxManager.
func (r *FileUserRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(ctx)
}

// Create writes a new record with version 1.
func (r *FileUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.readAllLocked()
	if err != nil {
		return err
	}
	for _, existing := range users {
		if existing.ID == user.ID || existing.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}

	record := *user
	record.Version = 1
	if err := r.writeLocked(&record); err != nil {
		return err
	}
	user.Version = 1
	return nil
}

// Update rewrites an existing record if its stored version equals user.Version,
// then bumps user.Version.
func (r *FileUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.readLocked(user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrVersionConflict
		}
		return err
	}
	if current.Version != user.Version {
		return domain.ErrVersionConflict
	}

	if current.Username != user.Username {
		users, err := r.readAllLocked()
		if err != nil {
			return err
		}
		for _, existing := range users {
			if existing.ID != user.ID && existing.Username == user.Username {
				return domain.ErrUsernameTaken
			}
		}
	}

	record := *user
	record.Version = current.Version + 1
	record.CreatedAt = current.CreatedAt
	if err := r.writeLocked(&record); err != nil {
		return err
	}
	user.Version = record.Version
	return nil
}

// GetByID retrieves a user by ID
func (r *FileUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readLocked(id)
}

// GetByUsername retrieves a user by username
func (r *FileUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users, err := r.readAllLocked()
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Delete removes a record and reports whether it existed.
func (r *FileUserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(r.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Wrap(err, "failed to delete user")
	}
	return true, nil
}

// List returns users ordered by ID (creation order for UUIDv7).
func (r *FileUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users, err := r.readAllLocked()
	if err != nil {
		return nil, err
	}
	if offset >= len(users) {
		return []*domain.User{}, nil
	}
	end := min(offset+limit, len(users))
	return users[offset:end], nil
}

// Ping checks the store directory is reachable for readiness probes.
func (r *FileUserRepository) Ping(ctx context.Context) error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return apperrors.Wrap(err, "identity store directory unavailable")
	}
	if !info.IsDir() {
		return apperrors.New("identity store path is not a directory")
	}
	return nil
}

func (r *FileUserRepository) path(id uuid.UUID) string {
	return filepath.Join(r.dir, hex.EncodeToString(id[:])+".json")
}

func (r *FileUserRepository) readLocked(id uuid.UUID) (*domain.User, error) {
	data, err := os.ReadFile(r.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read user")
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		if errors.Is(err, domain.ErrCorruptRecord) {
			return nil, err
		}
		return nil, apperrors.Wrap(domain.ErrCorruptRecord, err.Error())
	}
	return &user, nil
}

func (r *FileUserRepository) readAllLocked() ([]*domain.User, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list identity store")
	}

	users := make([]*domain.User, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}

		raw, err := hex.DecodeString(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		id, err := uuid.FromBytes(raw)
		if err != nil {
			continue
		}

		user, err := r.readLocked(id)
		if errors.Is(err, domain.ErrUserNotFound) {
			continue
		}
		if errors.Is(err, domain.ErrCorruptRecord) {
			r.logger.Warn("skipping corrupt identity record",
				slog.String("record", name),
				slog.Any("error", err),
			)
			continue
		}
		if err != nil {
			return nil, apperrors.Wrapf(err, "record %s", name)
		}
		users = append(users, user)
	}

	slices.SortFunc(users, func(a, b *domain.User) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return users, nil
}

func (r *FileUserRepository) writeLocked(user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user")
	}

	tmp, err := os.CreateTemp(r.dir, ".tmp-*")
	if err != nil {
		return apperrors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to write user")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to sync user")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(err, "failed to close user file")
	}

	if err := os.Rename(tmpName, r.path(user.ID)); err != nil {
		return apperrors.Wrap(err, "failed to persist user")
	}
	return nil
}
