package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/policy"
)

// Data is the serialized session payload.
type Data struct {
	Identity  *policy.Identity `json:"identity,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Config holds the cookie settings of a Manager.
type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Path       string
}

// Manager issues session cookies and maps them to stored Data.
type Manager struct {
	store  Store
	config Config
	logger *slog.Logger
}

// NewManager creates a Manager. Empty cookie name and path fall back to
// "gatekeeper_session" and "/".
func NewManager(store Store, config Config, logger *slog.Logger) *Manager {
	if config.CookieName == "" {
		config.CookieName = "gatekeeper_session"
	}
	if config.Path == "" {
		config.Path = "/"
	}
	if config.TTL <= 0 {
		config.TTL = 1200 * time.Second
	}
	return &Manager{store: store, config: config, logger: logger}
}

// Identity returns the identity stored in the caller's session. It satisfies
// policy.IdentitySource.
func (m *Manager) Identity(ctx context.Context, r *http.Request) (policy.Identity, bool, error) {
	data, err := m.load(ctx, r)
	if err != nil {
		return policy.Identity{}, false, err
	}
	if data == nil || data.Identity == nil {
		return policy.Identity{}, false, nil
	}
	return *data.Identity, true, nil
}

// Login stores identity under a fresh session ID and drops the previous session, so a
// session ID known before authentication is never authenticated.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, identity policy.Identity) error {
	if id, ok := m.cookieID(r); ok {
		if err := m.store.Delete(ctx, id); err != nil {
			return apperrors.Wrap(err, "failed to drop previous session")
		}
	}

	payload, err := json.Marshal(Data{Identity: &identity, CreatedAt: time.Now().UTC()})
	if err != nil {
		return apperrors.Wrap(err, "failed to encode session")
	}

	id := uuid.NewString()
	if err := m.store.Set(ctx, id, payload, m.config.TTL); err != nil {
		return apperrors.Wrap(err, "failed to store session")
	}

	http.SetCookie(w, m.cookie(id, int(m.config.TTL.Seconds())))
	m.logger.Debug("session started", slog.String("username", identity.Username))
	return nil
}

// Clear removes the caller's session and expires the cookie.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if id, ok := m.cookieID(r); ok {
		if err := m.store.Delete(ctx, id); err != nil {
			return apperrors.Wrap(err, "failed to clear session")
		}
	}
	http.SetCookie(w, m.cookie("", -1))
	return nil
}

// CookieName returns the configured cookie name.
func (m *Manager) CookieName() string {
	return m.config.CookieName
}

func (m *Manager) load(ctx context.Context, r *http.Request) (*Data, error) {
	id, ok := m.cookieID(r)
	if !ok {
		return nil, nil
	}

	raw, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read session")
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		m.logger.Warn("discarding undecodable session", slog.Any("error", err))
		return nil, nil
	}
	return &data, nil
}

func (m *Manager) cookieID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.config.CookieName,
		Value:    value,
		Path:     m.config.Path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
