package auth

import (
	"fmt"
	"time"

	"github.com/afabl/decision-matrix/internal/config"
	"github.com/afabl/decision-matrix/internal/db"
	"github.com/afabl/decision-matrix/internal/mailer"
	"gorm.io/gorm"
)

// Migrate creates the app_auth schema and tables.
func Migrate(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "app_auth"); err != nil {
		return fmt.Errorf("ensure schema app_auth: %w", err)
	}
	if err := d.AutoMigrate(&User{}, &Session{}, &EmailVerification{}); err != nil {
		return fmt.Errorf("auto-migrate auth tables: %w", err)
	}
	return nil
}

// Module bundles the wired auth components.
type Module struct {
	Hasher     *PasswordHasher
	Sessions   *SessionManager
	Verifier   *EmailVerifier
	Service    *Service
	Middleware *Middleware
	Handlers   *Handlers
	Cookies    CookieCodec
}

// New wires the auth components from cfg.
func New(cfg config.Auth, store Store, sender mailer.Sender) (*Module, error) {
	hasher := NewPasswordHasher(cfg.Argon2, cfg.HashConcurrency)
	sessions := NewSessionManager(store, cfg)
	verifier := NewEmailVerifier(store, sender, cfg)
	cookies := NewCookieCodec(cfg)
	svc, err := NewService(store, hasher, sessions, verifier)
	if err != nil {
		return nil, err
	}
	// the frontend posts cross-origin with credentials
	hosts := append([]string{cfg.FrontendURL}, cfg.AllowedHosts...)

	return &Module{
		Hasher:     hasher,
		Sessions:   sessions,
		Verifier:   verifier,
		Service:    svc,
		Middleware: NewMiddleware(sessions, NewCSRFGuard(hosts), cookies, cfg),
		Handlers:   NewHandlers(svc, cookies, cfg.FrontendURL),
		Cookies:    cookies,
	}, nil
}

// PruneExpired deletes sessions and verification tokens that expired before now.
func PruneExpired(d *gorm.DB, now time.Time) (sessions, tokens int64, err error) {
	res := d.Where("expires_at <= ?", now).Delete(&Session{})
	if res.Error != nil {
		return 0, 0, fmt.Errorf("prune sessions: %w", res.Error)
	}
	sessions = res.RowsAffected

	res = d.Where("expires_at <= ?", now).Delete(&EmailVerification{})
	if res.Error != nil {
		return sessions, 0, fmt.Errorf("prune email verifications: %w", res.Error)
	}
	return sessions, res.RowsAffected, nil
}
