package auth

import (
	"context"
	"errors"
	"time"

	"github.com/afabl/decision-matrix/internal/config"
)

// SessionManager issues, validates, renews and invalidates sessions.
// Expiry and rotation happen lazily at validation time.
type SessionManager struct {
	store Store
	span  time.Duration
	now   func() time.Time
}

func NewSessionManager(store Store, cfg config.Auth) *SessionManager {
	return &SessionManager{
		store: store,
		span:  cfg.SessionSpan,
		now:   time.Now,
	}
}

// RenewalThreshold is the remaining lifetime below which a session is rotated.
func (m *SessionManager) RenewalThreshold() time.Duration {
	return m.span / 2
}

// CreateSession issues a new session for userID. The returned session is fresh.
func (m *SessionManager) CreateSession(ctx context.Context, userID string) (Session, error) {
	sess, err := m.newSession(userID)
	if err != nil {
		return Session{}, err
	}
	if err := m.store.InsertSession(ctx, sess); err != nil {
		return Session{}, err
	}
	sess.Fresh = true
	return sess, nil
}

// ValidateSession resolves id to an identity. Unknown, expired or orphaned
// sessions yield Anonymous. A session in the second half of its life is
// replaced by a new one, returned with Fresh set.
func (m *SessionManager) ValidateSession(ctx context.Context, id string) (Identity, error) {
	if id == "" {
		return Anonymous{}, nil
	}

	var result Identity = Anonymous{}
	err := m.store.WithinTx(ctx, func(tx Store) error {
		sess, err := tx.LockSession(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		now := m.now()
		if !now.Before(sess.ExpiresAt) {
			_, err := tx.DeleteSession(ctx, sess.ID)
			return err
		}

		user, err := tx.UserByID(ctx, sess.UserID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if sess.ExpiresAt.Sub(now) < m.RenewalThreshold() {
			deleted, err := tx.DeleteSession(ctx, sess.ID)
			if err != nil {
				return err
			}
			if !deleted {
				// rotated by a concurrent request
				return nil
			}
			renewed, err := m.newSession(sess.UserID)
			if err != nil {
				return err
			}
			if err := tx.InsertSession(ctx, renewed); err != nil {
				return err
			}
			renewed.Fresh = true
			sess = renewed
		}

		result = Authenticated{User: user, Session: sess}
		return nil
	})
	if err != nil {
		return Anonymous{}, err
	}
	return result, nil
}

// InvalidateSession deletes the session. Deleting an absent session is not an error.
func (m *SessionManager) InvalidateSession(ctx context.Context, id string) error {
	_, err := m.store.DeleteSession(ctx, id)
	return err
}

// InvalidateAllSessions deletes every session owned by userID.
func (m *SessionManager) InvalidateAllSessions(ctx context.Context, userID string) error {
	return m.store.DeleteUserSessions(ctx, userID)
}

func (m *SessionManager) newSession(userID string) (Session, error) {
	id, err := generateID()
	if err != nil {
		return Session{}, err
	}
	return Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: m.now().Add(m.span),
	}, nil
}
