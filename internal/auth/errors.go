package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrEmailAlreadyVerified = errors.New("email already verified")
	ErrTokenExpired         = errors.New("email verification token expired or not found")
	ErrTokenMismatch        = errors.New("email verification token does not match account")
	ErrCSRFRejected         = errors.New("request origin rejected")
	ErrDeliveryFailed       = errors.New("unable to send confirmation email")
	ErrCorruptedCredential  = errors.New("stored password hash is corrupted")

	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("username or email already taken")
)
