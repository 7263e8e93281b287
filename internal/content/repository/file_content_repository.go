// Package repository provides content stores: one JSON file per author or post, or
// authors and posts tables in PostgreSQL or MySQL.
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

	"github.com/allisson/gatekeeper/internal/content/domain"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// Subdirectories of the store root, one file per record.
const (
	authorsDir = "authors"
	postsDir   = "posts"
)

// FileContentRepository stores authors under <root>/authors and posts under <root>/posts.
// Scans skip records that cannot be decoded; direct lookups report them as ErrCorruptRecord.
type FileContentRepository struct {
	authors string
	posts   string
	logger  *slog.Logger
	mu      sync.RWMutex
	txMu    sync.Mutex
}

// NewFileContentRepository creates the authors and posts directories under root if needed.
func NewFileContentRepository(root string, logger *slog.Logger) (*FileContentRepository, error) {
	repo := &FileContentRepository{
		authors: filepath.Join(root, authorsDir),
		posts:   filepath.Join(root, postsDir),
		logger:  logger,
	}
	if repo.logger == nil {
		repo.logger = slog.New(slog.DiscardHandler)
	}

	for _, dir := range []string{repo.authors, repo.posts} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, apperrors.Wrap(err, "failed to create content store directory")
		}
	}
	return repo, nil
}

// WithTx runs fn while holding the store's transaction lock. It satisfies database.TxManager.
func (r *FileContentRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(ctx)
}

// CreateAuthor writes a new author with version 1.
func (r *FileContentRepository) CreateAuthor(ctx context.Context, author *domain.Author) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := *author
	record.Version = 1
	if err := writeRecord(r.authors, record.ID, &record); err != nil {
		return err
	}
	author.Version = 1
	return nil
}

// UpdateAuthor rewrites an author if its stored version equals author.Version.
func (r *FileContentRepository) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := readRecord[domain.Author](r.authors, author.ID, domain.ErrAuthorNotFound)
	if err != nil {
		if errors.Is(err, domain.ErrAuthorNotFound) {
			return domain.ErrVersionConflict
		}
		return err
	}
	if current.Version != author.Version {
		return domain.ErrVersionConflict
	}

	record := *author
	record.Version = current.Version + 1
	record.CreatedAt = current.CreatedAt
	if err := writeRecord(r.authors, record.ID, &record); err != nil {
		return err
	}
	author.Version = record.Version
	return nil
}

// GetAuthor retrieves an author by ID
func (r *FileContentRepository) GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return readRecord[domain.Author](r.authors, id, domain.ErrAuthorNotFound)
}

// DeleteAuthor removes an author and reports whether it existed.
func (r *FileContentRepository) DeleteAuthor(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return removeRecord(r.authors, id)
}

// ListAuthors returns authors ordered by ID (creation order for UUIDv7).
func (r *FileContentRepository) ListAuthors(ctx context.Context, offset, limit int) ([]*domain.Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	authors, err := scanRecords(r.authors, r.logger, domain.ErrAuthorNotFound, func(a *domain.Author) uuid.UUID {
		return a.ID
	})
	if err != nil {
		return nil, err
	}
	return page(authors, offset, limit), nil
}

// CreatePost writes a new post with version 1.
func (r *FileContentRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := *post
	record.Version = 1
	if err := writeRecord(r.posts, record.ID, &record); err != nil {
		return err
	}
	post.Version = 1
	return nil
}

// UpdatePost rewrites a post if its stored version equals post.Version. The stored
// author and creation time are kept.
func (r *FileContentRepository) UpdatePost(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := readRecord[domain.Post](r.posts, post.ID, domain.ErrPostNotFound)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return domain.ErrVersionConflict
		}
		return err
	}
	if current.Version != post.Version {
		return domain.ErrVersionConflict
	}

	record := *post
	record.Version = current.Version + 1
	record.AuthorID = current.AuthorID
	record.CreatedAt = current.CreatedAt
	if err := writeRecord(r.posts, record.ID, &record); err != nil {
		return err
	}
	post.Version = record.Version
	return nil
}

// GetPost retrieves a post by ID
func (r *FileContentRepository) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return readRecord[domain.Post](r.posts, id, domain.ErrPostNotFound)
}

// DeletePost removes a post and reports whether it existed.
func (r *FileContentRepository) DeletePost(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return removeRecord(r.posts, id)
}

// ListPosts returns posts ordered by ID, restricted to authorID unless it is uuid.Nil.
func (r *FileContentRepository) ListPosts(
	ctx context.Context,
	authorID uuid.UUID,
	offset, limit int,
) ([]*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts, err := r.scanPosts(authorID)
	if err != nil {
		return nil, err
	}
	return page(posts, offset, limit), nil
}

// CountPostsByAuthor returns how many readable posts reference the author.
func (r *FileContentRepository) CountPostsByAuthor(ctx context.Context, authorID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts, err := r.scanPosts(authorID)
	if err != nil {
		return 0, err
	}
	return len(posts), nil
}

// Ping checks both store directories are reachable for readiness probes.
func (r *FileContentRepository) Ping(ctx context.Context) error {
	for _, dir := range []string{r.authors, r.posts} {
		info, err := os.Stat(dir)
		if err != nil {
			return apperrors.Wrap(err, "content store directory unavailable")
		}
		if !info.IsDir() {
			return apperrors.New("content store path is not a directory")
		}
	}
	return nil
}

func (r *FileContentRepository) scanPosts(authorID uuid.UUID) ([]*domain.Post, error) {
	posts, err := scanRecords(r.posts, r.logger, domain.ErrPostNotFound, func(p *domain.Post) uuid.UUID {
		return p.ID
	})
	if err != nil {
		return nil, err
	}
	if authorID == uuid.Nil {
		return posts, nil
	}
	return slices.DeleteFunc(posts, func(p *domain.Post) bool {
		return p.AuthorID != authorID
	}), nil
}

func page[T any](records []*T, offset, limit int) []*T {
	if offset >= len(records) {
		return []*T{}
	}
	end := min(offset+limit, len(records))
	return records[offset:end]
}

func recordPath(dir string, id uuid.UUID) string {
	return filepath.Join(dir, hex.EncodeToString(id[:])+".json")
}

func readRecord[T any](dir string, id uuid.UUID, notFound error) (*T, error) {
	data, err := os.ReadFile(recordPath(dir, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read content record")
	}

	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		if errors.Is(err, domain.ErrCorruptRecord) {
			return nil, err
		}
		return nil, apperrors.Wrap(domain.ErrCorruptRecord, err.Error())
	}
	return &record, nil
}

// scanRecords decodes every <hex-id>.json file in dir, ordered by id. Corrupt records are
// logged and skipped.
func scanRecords[T any](dir string, logger *slog.Logger, notFound error, id func(*T) uuid.UUID) ([]*T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list content store")
	}

	records := make([]*T, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}

		raw, err := hex.DecodeString(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		recordID, err := uuid.FromBytes(raw)
		if err != nil {
			continue
		}

		record, err := readRecord[T](dir, recordID, notFound)
		if errors.Is(err, notFound) {
			continue
		}
		if errors.Is(err, domain.ErrCorruptRecord) {
			logger.Warn("skipping corrupt content record",
				slog.String("record", filepath.Join(filepath.Base(dir), name)),
				slog.Any("error", err),
			)
			continue
		}
		if err != nil {
			return nil, apperrors.Wrapf(err, "record %s", name)
		}
		records = append(records, record)
	}

	slices.SortFunc(records, func(a, b *T) int {
		ida, idb := id(a), id(b)
		return bytes.Compare(ida[:], idb[:])
	})
	return records, nil
}

func removeRecord(dir string, id uuid.UUID) (bool, error) {
	err := os.Remove(recordPath(dir, id))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Wrap(err, "failed to delete content record")
	}
	return true, nil
}

func writeRecord(dir string, id uuid.UUID, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode content record")
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return apperrors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to write content record")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to sync content record")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(err, "failed to close content record file")
	}

	if err := os.Rename(tmpName, recordPath(dir, id)); err != nil {
		return apperrors.Wrap(err, "failed to persist content record")
	}
	return nil
}
