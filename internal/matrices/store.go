package matrices

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Store persists matrices. Every lookup is scoped to the owning user, so a
// matrix owned by someone else is reported as ErrNotFound.
type Store interface {
	List(ctx context.Context, userID string) ([]Summary, error)
	Create(ctx context.Context, m Matrix) error
	Get(ctx context.Context, userID, id string) (Matrix, error)
	Update(ctx context.Context, m Matrix) error
	Delete(ctx context.Context, userID, id string) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(d *gorm.DB) *GormStore {
	return &GormStore{db: d}
}

func (s *GormStore) List(ctx context.Context, userID string) ([]Summary, error) {
	out := []Summary{}
	err := s.db.WithContext(ctx).
		Model(&Matrix{}).
		Select("id", "name").
		Where("user_id = ?", userID).
		Order("name").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list matrices: %w", err)
	}
	return out, nil
}

func (s *GormStore) Create(ctx context.Context, m Matrix) error {
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("create matrix: %w", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, userID, id string) (Matrix, error) {
	var m Matrix
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Matrix{}, ErrNotFound
	}
	if err != nil {
		return Matrix{}, fmt.Errorf("get matrix: %w", err)
	}
	return m, nil
}

func (s *GormStore) Update(ctx context.Context, m Matrix) error {
	res := s.db.WithContext(ctx).
		Model(&m).
		Where("user_id = ?", m.UserID).
		Select("name", "choices", "factors", "scores").
		Updates(&m)
	if res.Error != nil {
		return fmt.Errorf("update matrix: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Matrix{})
	if res.Error != nil {
		return fmt.Errorf("delete matrix: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
