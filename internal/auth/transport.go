package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/afabl/decision-matrix/internal/config"
)

// SessionTokenHeader carries a re-issued session id back to bearer clients.
const SessionTokenHeader = "X-Session-Token"

// CookieCodec converts sessions to and from the session cookie.
type CookieCodec struct {
	name   string
	secure bool
	now    func() time.Time
}

func NewCookieCodec(cfg config.Auth) CookieCodec {
	name := cfg.CookieName
	if name == "" {
		name = "auth_session"
	}
	return CookieCodec{name: name, secure: cfg.SecureCookies, now: time.Now}
}

func (c CookieCodec) Name() string { return c.name }

// Encode returns the cookie carrying s. MaxAge tracks s.ExpiresAt.
func (c CookieCodec) Encode(s Session) *http.Cookie {
	maxAge := int(s.ExpiresAt.Sub(c.now()).Seconds())
	if maxAge <= 0 {
		return c.Blank()
	}
	return &http.Cookie{
		Name:     c.name,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Expires:  s.ExpiresAt.UTC(),
	}
}

// Blank returns a cookie that clears the session cookie on the client.
func (c CookieCodec) Blank() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	}
}

// Decode extracts the session id from a raw Cookie header value.
func (c CookieCodec) Decode(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return "", false
	}
	for _, ck := range cookies {
		if ck.Name == c.name && ck.Value != "" {
			return ck.Value, true
		}
	}
	return "", false
}

// FromRequest extracts the session id from r's cookies.
func (c CookieCodec) FromRequest(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

// EncodeBearer formats id as an Authorization header value.
func EncodeBearer(id string) string {
	return "Bearer " + id
}

// DecodeBearer extracts the session id from an Authorization header value.
func DecodeBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
