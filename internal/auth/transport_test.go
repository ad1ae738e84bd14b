package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/afabl/decision-matrix/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieCodec_Encode(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := NewTestConfig()
	cfg.SecureCookies = true
	c := NewCookieCodec(cfg)
	c.now = func() time.Time { return now }

	ck := c.Encode(Session{ID: "abc", ExpiresAt: now.Add(2 * time.Hour)})

	assert.Equal(t, "auth_session", ck.Name)
	assert.Equal(t, "abc", ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, 7200, ck.MaxAge)
	assert.Equal(t, now.Add(2*time.Hour), ck.Expires)
}

func TestCookieCodec_InsecureOutsideProduction(t *testing.T) {
	c := NewCookieCodec(NewTestConfig())
	ck := c.Encode(Session{ID: "abc", ExpiresAt: time.Now().Add(time.Hour)})
	assert.False(t, ck.Secure)
}

func TestCookieCodec_Blank(t *testing.T) {
	c := NewCookieCodec(config.Auth{CookieName: "sid"})
	ck := c.Blank()

	assert.Equal(t, "sid", ck.Name)
	assert.Empty(t, ck.Value)
	assert.Less(t, ck.MaxAge, 0)
	assert.Contains(t, ck.String(), "Max-Age=0")
}

func TestCookieCodec_EncodeExpiredIsBlank(t *testing.T) {
	c := NewCookieCodec(NewTestConfig())
	ck := c.Encode(Session{ID: "abc", ExpiresAt: time.Now().Add(-time.Minute)})
	assert.Empty(t, ck.Value)
	assert.Less(t, ck.MaxAge, 0)
}

func TestCookieCodec_Decode(t *testing.T) {
	c := NewCookieCodec(NewTestConfig())

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"auth_session=abc123", "abc123", true},
		{"theme=dark; auth_session=abc123; lang=en", "abc123", true},
		{"auth_session=", "", false},
		{"theme=dark", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := c.Decode(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestBearer(t *testing.T) {
	assert.Equal(t, "Bearer abc", EncodeBearer("abc"))

	id, ok := DecodeBearer(EncodeBearer("abc"))
	require.True(t, ok)
	assert.Equal(t, "abc", id)

	id, ok = DecodeBearer("bearer  xyz ")
	require.True(t, ok)
	assert.Equal(t, "xyz", id)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic dXNlcjpwYXNz", "abc"} {
		_, ok := DecodeBearer(h)
		assert.False(t, ok, h)
	}
}
