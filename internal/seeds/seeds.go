// Package seeds loads a demo account and sample matrices for local development.
package seeds

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/afabl/decision-matrix/internal/auth"
	"github.com/afabl/decision-matrix/internal/matrices"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Seed ids are derived from stable names so reruns find the existing rows.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://matrix.afabl.com/seeds"))

const (
	DemoUsername = "demo"
	DemoPassword = "demo-password"
	DemoEmail    = "demo@afabl.com"
)

func SeedAll(ctx context.Context, d *gorm.DB, hasher *auth.PasswordHasher) error {
	user, err := SeedDemoUser(ctx, d, hasher)
	if err != nil {
		return err
	}
	return SeedDemoMatrices(ctx, d, user.ID)
}

// SeedDemoUser creates the verified demo account unless it already exists.
func SeedDemoUser(ctx context.Context, d *gorm.DB, hasher *auth.PasswordHasher) (auth.User, error) {
	var existing auth.User
	err := d.WithContext(ctx).First(&existing, "username = ?", DemoUsername).Error
	if err == nil {
		log.Printf("⚠️ Demo user exists, skipping: %s", DemoUsername)
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return auth.User{}, fmt.Errorf("DB error on demo user: %w", err)
	}

	hash, err := hasher.Hash(ctx, DemoPassword)
	if err != nil {
		return auth.User{}, fmt.Errorf("hash demo password: %w", err)
	}
	user := auth.User{
		ID:            uuid.NewSHA1(namespace, []byte("user/"+DemoUsername)).String(),
		Username:      DemoUsername,
		PasswordHash:  hash,
		Email:         DemoEmail,
		EmailVerified: true,
	}
	if err := d.WithContext(ctx).Create(&user).Error; err != nil {
		return auth.User{}, fmt.Errorf("failed to create demo user: %w", err)
	}

	log.Printf("✅ Seeded demo user %s", DemoUsername)
	return user, nil
}

func demoMatrices() []matrices.Matrix {
	return []matrices.Matrix{
		{
			Name:    "Which laptop?",
			Choices: pq.StringArray{"Model A", "Model B", "Model C"},
			Factors: pq.StringArray{"Price", "Battery", "Weight"},
			Scores:  matrices.Scores{{3, 2, 1}, {2, 3, 2}, {1, 2, 3}},
		},
		{
			Name:    "Where to live",
			Choices: pq.StringArray{"City", "Suburbs"},
			Factors: pq.StringArray{"Commute", "Rent"},
			Scores:  matrices.Scores{{3, 1}, {-1, 2}},
		},
	}
}

// SeedDemoMatrices adds the sample matrices owned by userID, skipping ones already present.
func SeedDemoMatrices(ctx context.Context, d *gorm.DB, userID string) error {
	seeded := 0
	for _, m := range demoMatrices() {
		m.ID = uuid.NewSHA1(namespace, []byte("matrix/"+userID+"/"+m.Name)).String()
		m.UserID = userID
		if err := m.CheckShape(); err != nil {
			return fmt.Errorf("demo matrix %q: %w", m.Name, err)
		}

		var existing matrices.Matrix
		err := d.WithContext(ctx).First(&existing, "id = ?", m.ID).Error
		if err == nil {
			log.Printf("⚠️ Matrix exists, skipping: %s", m.Name)
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("DB error on matrix %s: %w", m.Name, err)
		}

		if err := d.WithContext(ctx).Create(&m).Error; err != nil {
			return fmt.Errorf("failed to create matrix %s: %w", m.Name, err)
		}
		seeded++
	}

	log.Printf("✅ Seeded %d matrices", seeded)
	return nil
}
