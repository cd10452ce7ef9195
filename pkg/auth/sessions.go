package auth

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
	"hoaportal/pkg/store"
	"hoaportal/pkg/utils"
)

var (
	// ErrInvalidToken means the token is unknown or was revoked.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken means the access window has passed; the token may
	// still be refreshable.
	ErrExpiredToken = errors.New("token expired")
	// ErrRefreshExpired means the refresh window has also passed and the
	// caller must log in again.
	ErrRefreshExpired = errors.New("refresh window expired")
	// ErrBadCredentials covers unknown emails and wrong passwords alike.
	ErrBadCredentials = errors.New("bad credentials")
)

// Manager issues, validates and rotates opaque session tokens.
type Manager struct {
	accessTTL     time.Duration
	refreshWindow time.Duration
	now           func() time.Time
}

// NewManager builds a Manager from the configured session windows.
func NewManager(accessTTL, refreshWindow time.Duration) *Manager {
	return &Manager{
		accessTTL:     accessTTL,
		refreshWindow: refreshWindow,
		now:           time.Now,
	}
}

// dummyHash keeps login timing flat when the email is unknown.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Login verifies an owner's credentials and issues a fresh session.
func (m *Manager) Login(email, password string) (models.Session, error) {
	owner, err := store.GetOwnerByEmail(email)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return models.Session{}, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(password)) != nil {
		logger.Warn("login_failed", "owner", owner.ID)
		return models.Session{}, ErrBadCredentials
	}
	return m.Issue(owner)
}

// Issue creates and persists a new session for an owner.
func (m *Manager) Issue(owner models.Owner) (models.Session, error) {
	now := m.now().UTC()
	s := models.Session{
		Token:         utils.NewToken(),
		OwnerID:       owner.ID,
		Role:          owner.Role,
		IssuedTS:      now.UnixNano(),
		ExpiresTS:     now.Add(m.accessTTL).UnixNano(),
		RefreshableTS: now.Add(m.refreshWindow).UnixNano(),
	}
	if err := store.SaveSession(s); err != nil {
		return models.Session{}, err
	}
	logger.Info("session_issued", "owner", owner.ID, "role", owner.Role)
	return s, nil
}

// Validate resolves a token to its live session. Expired tokens return
// ErrExpiredToken so callers can distinguish "refresh me" from "go away".
func (m *Manager) Validate(token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, ErrInvalidToken
	}
	s, err := store.GetSession(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Session{}, ErrInvalidToken
		}
		return models.Session{}, err
	}
	if m.now().UTC().UnixNano() >= s.ExpiresTS {
		return models.Session{}, ErrExpiredToken
	}
	return s, nil
}

// Refresh exchanges a token, expired or not, for a newly rotated one.
// The presented token is revoked on success. Outside the refresh window
// the session is removed and the owner must log in again.
func (m *Manager) Refresh(token string) (models.Session, error) {
	old, err := store.GetSession(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Session{}, ErrInvalidToken
		}
		return models.Session{}, err
	}
	now := m.now().UTC()
	if now.UnixNano() >= old.RefreshableTS {
		_ = store.DeleteSession(token)
		logger.Warn("refresh_window_expired", "owner", old.OwnerID)
		return models.Session{}, ErrRefreshExpired
	}
	owner, err := store.GetOwner(old.OwnerID)
	if err != nil {
		_ = store.DeleteSession(token)
		return models.Session{}, ErrInvalidToken
	}
	fresh, err := m.Issue(owner)
	if err != nil {
		return models.Session{}, err
	}
	if err := store.DeleteSession(token); err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Warn("stale_session_delete_failed", "error", err)
	}
	logger.Info("session_rotated", "owner", owner.ID)
	return fresh, nil
}

// Revoke deletes a session. Revoking an unknown token is a no-op.
func (m *Manager) Revoke(token string) error {
	err := store.DeleteSession(token)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
