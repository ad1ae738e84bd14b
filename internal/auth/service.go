package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Service implements the account flows on top of the auth components.
type Service struct {
	store    Store
	hasher   *PasswordHasher
	sessions *SessionManager
	verifier *EmailVerifier

	// verified against when the username is unknown
	dummyHash string
}

func NewService(store Store, hasher *PasswordHasher, sessions *SessionManager, verifier *EmailVerifier) (*Service, error) {
	dummy, err := hasher.Hash(context.Background(), "decision-matrix-placeholder")
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}
	return &Service{
		store:     store,
		hasher:    hasher,
		sessions:  sessions,
		verifier:  verifier,
		dummyHash: dummy,
	}, nil
}

type SignupInput struct {
	Username string
	Password string
	Email    string
}

// Signup creates an unverified user and its first verification token in one
// transaction, then mails the link. When delivery fails the account still
// exists and the returned error wraps ErrDeliveryFailed; the caller can use
// ResendConfirmation.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: hash,
		Email:        normalizeEmail(in.Email),
	}

	var token EmailVerification
	err = s.store.WithinTx(ctx, func(tx Store) error {
		if err := tx.CreateUser(ctx, &user); err != nil {
			return err
		}
		var err error
		token, err = s.verifier.Mint(ctx, tx, user)
		return err
	})
	if err != nil {
		return User{}, err
	}

	return user, s.verifier.Send(ctx, token)
}

// Login checks credentials and issues a session. Unverified accounts get
// ErrEmailNotVerified after the password has been checked.
func (s *Service) Login(ctx context.Context, username, password string) (User, Session, error) {
	user, err := s.checkCredentials(ctx, username, password)
	if err != nil {
		return User{}, Session{}, err
	}
	if !user.EmailVerified {
		return User{}, Session{}, ErrEmailNotVerified
	}

	sess, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return User{}, Session{}, err
	}
	return user, sess, nil
}

// ResendConfirmation re-issues the verification token after re-checking credentials.
func (s *Service) ResendConfirmation(ctx context.Context, username, password string) error {
	user, err := s.checkCredentials(ctx, username, password)
	if err != nil {
		return err
	}
	_, err = s.verifier.Resend(ctx, user)
	return err
}

// ConfirmEmail redeems a verification token.
func (s *Service) ConfirmEmail(ctx context.Context, tokenID string) (User, error) {
	return s.verifier.Redeem(ctx, tokenID)
}

// Signout invalidates sessionID. An empty id is a no-op.
func (s *Service) Signout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.InvalidateSession(ctx, sessionID)
}

func (s *Service) checkCredentials(ctx context.Context, username, password string) (User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		// same hashing cost as a known username
		_, _ = s.hasher.Verify(ctx, s.dummyHash, password)
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	ok, err := s.hasher.Verify(ctx, user.PasswordHash, password)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// normalizeEmail trims the address and folds the case of its domain. The
// local part is kept as given. Casers are not safe for concurrent use, so one
// is built per call.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at+1] + cases.Fold().String(email[at+1:])
}
