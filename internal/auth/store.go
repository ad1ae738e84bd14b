package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/afabl/decision-matrix/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists users, sessions and email verification tokens. Lookups
// return ErrNotFound when the record is absent.
type Store interface {
	// WithinTx runs fn against a transactional Store. An error from fn rolls back.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id string) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	SetEmailVerified(ctx context.Context, userID string) error

	InsertSession(ctx context.Context, s Session) error
	// LockSession reads a session and holds it until the transaction ends.
	LockSession(ctx context.Context, id string) (Session, error)
	// DeleteSession reports whether a row was removed.
	DeleteSession(ctx context.Context, id string) (bool, error)
	DeleteUserSessions(ctx context.Context, userID string) error

	InsertEmailVerification(ctx context.Context, t EmailVerification) error
	DeleteUserEmailVerifications(ctx context.Context, userID string) error
	// ConsumeEmailVerification deletes the token and returns it in one statement.
	ConsumeEmailVerification(ctx context.Context, id string) (EmailVerification, error)
}

// GormStore is the Postgres Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(d *gorm.DB) *GormStore {
	return &GormStore{db: d}
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) CreateUser(ctx context.Context, u *User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	if db.IsUniqueViolation(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormStore) UserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return u, notFound(err, "find user")
}

func (s *GormStore) UserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "username = ?", username).Error
	return u, notFound(err, "find user")
}

func (s *GormStore) SetEmailVerified(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("email_verified", true)
	if res.Error != nil {
		return fmt.Errorf("verify email: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) InsertSession(ctx context.Context, sess Session) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&sess).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *GormStore) LockSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sess, "id = ?", id).Error
	return sess, notFound(err, "find session")
}

func (s *GormStore) DeleteSession(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Session{})
	if res.Error != nil {
		return false, fmt.Errorf("delete session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) DeleteUserSessions(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Session{}).Error; err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (s *GormStore) InsertEmailVerification(ctx context.Context, t EmailVerification) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&t).Error; err != nil {
		return fmt.Errorf("create email verification: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteUserEmailVerifications(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&EmailVerification{}).Error; err != nil {
		return fmt.Errorf("delete email verifications: %w", err)
	}
	return nil
}

func (s *GormStore) ConsumeEmailVerification(ctx context.Context, id string) (EmailVerification, error) {
	var t EmailVerification
	res := s.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Delete(&t)
	if res.Error != nil {
		return EmailVerification{}, fmt.Errorf("consume email verification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return EmailVerification{}, ErrNotFound
	}
	return t, nil
}

func notFound(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
