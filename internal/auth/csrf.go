package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// CSRFGuard verifies that state-changing requests originate from an accepted host.
type CSRFGuard struct {
	allowedHosts []string
}

// NewCSRFGuard accepts the request's own host plus allowedHosts. Entries may
// include a scheme, which is ignored.
func NewCSRFGuard(allowedHosts []string) CSRFGuard {
	hosts := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		if n := normalizeHost(h); n != "" {
			hosts = append(hosts, n)
		}
	}
	return CSRFGuard{allowedHosts: hosts}
}

// IsMutating reports whether method may change server state.
func IsMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// Check returns ErrCSRFRejected when a mutating request lacks an Origin or
// Host header, or its origin host is not accepted. Safe methods always pass.
func (g CSRFGuard) Check(method, origin, host string) error {
	if !IsMutating(method) {
		return nil
	}
	if origin == "" || host == "" {
		return ErrCSRFRejected
	}

	originHost := normalizeHost(origin)
	if originHost == "" {
		return ErrCSRFRejected
	}
	if originHost == normalizeHost(host) {
		return nil
	}
	for _, h := range g.allowedHosts {
		if originHost == h {
			return nil
		}
	}
	return ErrCSRFRejected
}

// normalizeHost reduces "https://Example.com:8443/x" or "example.com:8443" to "example.com:8443".
func normalizeHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
