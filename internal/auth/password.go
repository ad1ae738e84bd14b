package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/afabl/decision-matrix/internal/config"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// PasswordHasher hashes and verifies passwords with Argon2id. At most
// `concurrency` hashes run at once since each one allocates MemoryKiB.
type PasswordHasher struct {
	params config.Argon2
	sem    *semaphore.Weighted
}

func NewPasswordHasher(params config.Argon2, concurrency int) *PasswordHasher {
	if concurrency < 1 {
		concurrency = 1
	}
	if params.SaltLen == 0 {
		params.SaltLen = 16
	}
	if params.KeyLen == 0 {
		params.KeyLen = 32
	}
	if params.Threads == 0 {
		params.Threads = 1
	}
	return &PasswordHasher{
		params: params,
		sem:    semaphore.NewWeighted(int64(concurrency)),
	}
}

// Hash returns the PHC-encoded Argon2id hash of plaintext.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)
	h.sem.Release(1)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches encoded. A mismatch is (false, nil);
// only an unreadable hash is an error. bcrypt hashes from the previous
// auth system are still accepted.
func (h *PasswordHasher) Verify(ctx context.Context, encoded, plaintext string) (bool, error) {
	if isBcrypt(encoded) {
		return h.verifyBcrypt(ctx, encoded, plaintext)
	}

	p, salt, want, err := decodeArgon2id(encoded)
	if err != nil {
		return false, err
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(plaintext), salt, p.Time, p.MemoryKiB, p.Threads, uint32(len(want)))
	h.sem.Release(1)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (h *PasswordHasher) verifyBcrypt(ctx context.Context, encoded, plaintext string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrCorruptedCredential, err)
	}
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func decodeArgon2id(encoded string) (config.Argon2, []byte, []byte, error) {
	var p config.Argon2

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, ErrCorruptedCredential
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrCorruptedCredential
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, ErrCorruptedCredential
	}
	if p.Time == 0 || p.Threads == 0 || p.MemoryKiB == 0 {
		return p, nil, nil, ErrCorruptedCredential
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrCorruptedCredential
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrCorruptedCredential
	}
	return p, salt, key, nil
}
