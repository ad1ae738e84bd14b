package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/afabl/decision-matrix/internal/config"
	"github.com/afabl/decision-matrix/internal/mailer"
)

// EmailVerifier issues and redeems single-use email confirmation tokens.
type EmailVerifier struct {
	store      Store
	sender     mailer.Sender
	ttl        time.Duration
	backendURL string
	now        func() time.Time
}

func NewEmailVerifier(store Store, sender mailer.Sender, cfg config.Auth) *EmailVerifier {
	ttl := cfg.VerificationTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &EmailVerifier{
		store:      store,
		sender:     sender,
		ttl:        ttl,
		backendURL: cfg.BackendURL,
		now:        time.Now,
	}
}

// ConfirmationURL is the link mailed for token id.
func (v *EmailVerifier) ConfirmationURL(id string) string {
	return v.backendURL + "/confirm-email/" + id
}

// IssueToken replaces any token held by user with a new one and mails the
// confirmation link. If delivery fails the token stays persisted and the
// error wraps ErrDeliveryFailed.
func (v *EmailVerifier) IssueToken(ctx context.Context, user User) (EmailVerification, error) {
	var token EmailVerification
	err := v.store.WithinTx(ctx, func(tx Store) error {
		var err error
		token, err = v.Mint(ctx, tx, user)
		return err
	})
	if err != nil {
		return EmailVerification{}, err
	}
	return token, v.Send(ctx, token)
}

// Mint deletes user's existing tokens and stores a new one using tx.
// It does not send anything.
func (v *EmailVerifier) Mint(ctx context.Context, tx Store, user User) (EmailVerification, error) {
	if err := tx.DeleteUserEmailVerifications(ctx, user.ID); err != nil {
		return EmailVerification{}, err
	}

	id, err := generateID()
	if err != nil {
		return EmailVerification{}, err
	}
	token := EmailVerification{
		ID:        id,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: v.now().Add(v.ttl),
	}
	if err := tx.InsertEmailVerification(ctx, token); err != nil {
		return EmailVerification{}, err
	}
	return token, nil
}

// Send mails the confirmation link for token.
func (v *EmailVerifier) Send(ctx context.Context, token EmailVerification) error {
	msg, err := mailer.ConfirmationMessage(token.Email, v.ConfirmationURL(token.ID))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if err := v.sender.Send(ctx, msg); err != nil {
		log.Printf("[auth] confirmation email for user %s failed: %v", token.UserID, err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// Redeem consumes token id. The token is deleted on every attempt, including
// failed ones. On success all of the user's sessions are invalidated and the
// email is marked verified.
func (v *EmailVerifier) Redeem(ctx context.Context, id string) (User, error) {
	var (
		user    User
		outcome error
	)

	err := v.store.WithinTx(ctx, func(tx Store) error {
		token, err := tx.ConsumeEmailVerification(ctx, id)
		if errors.Is(err, ErrNotFound) {
			outcome = ErrTokenExpired
			return nil
		}
		if err != nil {
			return err
		}
		if !v.now().Before(token.ExpiresAt) {
			outcome = ErrTokenExpired
			return nil
		}

		u, err := tx.UserByID(ctx, token.UserID)
		if errors.Is(err, ErrNotFound) {
			outcome = ErrTokenMismatch
			return nil
		}
		if err != nil {
			return err
		}
		if u.Email != token.Email {
			outcome = ErrTokenMismatch
			return nil
		}

		if err := tx.DeleteUserSessions(ctx, u.ID); err != nil {
			return err
		}
		if err := tx.SetEmailVerified(ctx, u.ID); err != nil {
			return err
		}
		u.EmailVerified = true
		user = u
		return nil
	})
	if err != nil {
		return User{}, err
	}
	if outcome != nil {
		return User{}, outcome
	}
	return user, nil
}

// Resend issues a fresh token for a user whose email is still unverified.
func (v *EmailVerifier) Resend(ctx context.Context, user User) (EmailVerification, error) {
	if user.EmailVerified {
		return EmailVerification{}, ErrEmailAlreadyVerified
	}
	return v.IssueToken(ctx, user)
}
