package auth

import (
	"context"
	"maps"
	"regexp"
	"sync"
	"time"

	"github.com/afabl/decision-matrix/internal/config"
	"github.com/afabl/decision-matrix/internal/mailer"
)

// MemStore is an in-memory Store for tests. Transactions are serialized and
// roll back by restoring a snapshot.
type MemStore struct {
	state *memState
	inTx  bool
}

type memState struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users    map[string]User
	sessions map[string]Session
	tokens   map[string]EmailVerification

	// counts session lookups so tests can assert the store was not consulted
	sessionReads int
}

func NewMemStore() *MemStore {
	return &MemStore{state: &memState{
		users:    map[string]User{},
		sessions: map[string]Session{},
		tokens:   map[string]EmailVerification{},
	}}
}

func (s *MemStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	st := s.state
	st.txMu.Lock()
	defer st.txMu.Unlock()

	st.mu.Lock()
	users, sessions, tokens := maps.Clone(st.users), maps.Clone(st.sessions), maps.Clone(st.tokens)
	st.mu.Unlock()

	if err := fn(&MemStore{state: st, inTx: true}); err != nil {
		st.mu.Lock()
		st.users, st.sessions, st.tokens = users, sessions, tokens
		st.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemStore) CreateUser(_ context.Context, u *User) error {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, existing := range st.users {
		if existing.ID == u.ID || existing.Username == u.Username || existing.Email == u.Email {
			return ErrUserExists
		}
	}
	st.users[u.ID] = *u
	return nil
}

func (s *MemStore) UserByID(_ context.Context, id string) (User, error) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	u, ok := st.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemStore) UserByUsername(_ context.Context, username string) (User, error) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, u := range st.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemStore) SetEmailVerified(_ context.Context, userID string) error {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	u, ok := st.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.EmailVerified = true
	st.users[userID] = u
	return nil
}

func (s *MemStore) InsertSession(_ context.Context, sess Session) error {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	sess.Fresh = false
	st.sessions[sess.ID] = sess
	return nil
}

func (s *MemStore) LockSession(_ context.Context, id string) (Session, error) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessionReads++
	sess, ok := st.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemStore) DeleteSession(_ context.Context, id string) (bool, error) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok, nil
}

func (s *MemStore) DeleteUserSessions(_ context.Context, userID string) error {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, sess := range st.sessions {
		if sess.UserID == userID {
			delete(st.sessions, id)
		}
	}
	return nil
}

func (s *MemStore) InsertEmailVerification(_ context.Context, t EmailVerification) error {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	st.tokens[t.ID] = t
	return nil
}

func (s *MemStore) DeleteUserEmailVerifications(_ context.Context, userID string) error {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, t := range st.tokens {
		if t.UserID == userID {
			delete(st.tokens, id)
		}
	}
	return nil
}

func (s *MemStore) ConsumeEmailVerification(_ context.Context, id string) (EmailVerification, error) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	t, ok := st.tokens[id]
	if !ok {
		return EmailVerification{}, ErrNotFound
	}
	delete(st.tokens, id)
	return t, nil
}

// test helpers

func (s *MemStore) SetSessionExpiry(id string, at time.Time) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	sess := st.sessions[id]
	sess.ExpiresAt = at
	st.sessions[id] = sess
}

func (s *MemStore) SetTokenExpiry(id string, at time.Time) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	t := st.tokens[id]
	t.ExpiresAt = at
	st.tokens[id] = t
}

func (s *MemStore) SetUserEmail(userID, email string) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	u := st.users[userID]
	u.Email = email
	st.users[userID] = u
}

func (s *MemStore) HasSession(id string) bool {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	return ok
}

func (s *MemStore) SessionCount(userID string) int {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for _, sess := range st.sessions {
		if sess.UserID == userID {
			n++
		}
	}
	return n
}

func (s *MemStore) TokensFor(userID string) []EmailVerification {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []EmailVerification
	for _, t := range st.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

func (s *MemStore) SessionReads() int {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessionReads
}

// AddUser stores u directly, bypassing signup.
func (s *MemStore) AddUser(u User) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	st.users[u.ID] = u
}

// RecordingSender captures sent messages; Err makes every send fail.
type RecordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	Err  error
}

func (r *RecordingSender) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *RecordingSender) Sent() []mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mailer.Message(nil), r.sent...)
}

// LastLink returns the confirmation link of the most recent message.
func (r *RecordingSender) LastLink() string {
	sent := r.Sent()
	if len(sent) == 0 {
		return ""
	}
	m := linkPattern.FindStringSubmatch(sent[len(sent)-1].HTML)
	if m == nil {
		return ""
	}
	return m[1]
}

var linkPattern = regexp.MustCompile(`href="([^"]+)"`)

// NewTestConfig returns settings with cheap hashing for tests.
func NewTestConfig() config.Auth {
	cfg := config.Default().Auth
	cfg.BackendURL = "http://api.example.com"
	cfg.FrontendURL = "http://app.example.com"
	cfg.Argon2 = config.Argon2{Time: 1, MemoryKiB: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
	return cfg
}
