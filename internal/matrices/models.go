package matrices

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound    = errors.New("matrix not found")
	ErrScoresShape = errors.New("scores must have one row per factor and one column per choice")
)

// Scores is the factors × choices grid, stored as jsonb.
type Scores [][]float64

func (s Scores) Value() (driver.Value, error) {
	if s == nil {
		s = Scores{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode scores: %w", err)
	}
	return string(b), nil
}

func (s *Scores) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*s = Scores{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scan scores: unsupported type %T", src)
	}
	return json.Unmarshal(b, s)
}

type Matrix struct {
	ID      string         `gorm:"primaryKey" json:"id"`
	UserID  string         `gorm:"not null;index" json:"userId"`
	Name    string         `gorm:"not null" json:"name"`
	Choices pq.StringArray `gorm:"type:text[];not null" json:"choices"`
	Factors pq.StringArray `gorm:"type:text[];not null" json:"factors"`
	Scores  Scores         `gorm:"type:jsonb;not null" json:"scores"`
}

func (Matrix) TableName() string { return "app_matrix.matrices" }

// Summary is the list view of a matrix.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewMatrix returns the starter matrix created for a new document.
func NewMatrix(id, userID string) Matrix {
	return Matrix{
		ID:      id,
		UserID:  userID,
		Name:    "Untitled matrix",
		Choices: pq.StringArray{"Choice 1", "Choice 2"},
		Factors: pq.StringArray{"Factor 1", "Factor 2"},
		Scores:  Scores{{1, 2}, {3, -1}},
	}
}

// CheckShape returns ErrScoresShape unless Scores has a row per factor and
// a column per choice.
func (m Matrix) CheckShape() error {
	if len(m.Scores) != len(m.Factors) {
		return ErrScoresShape
	}
	for _, row := range m.Scores {
		if len(row) != len(m.Choices) {
			return ErrScoresShape
		}
	}
	return nil
}
