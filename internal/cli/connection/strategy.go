package connection

import (
	"fmt"
	"net/http"
	"time"
)

// AuthMode names a credential strategy.
type AuthMode string

// Supported auth modes.
const (
	AuthBearer AuthMode = "bearer"
	AuthCookie AuthMode = "cookie"
)

// DefaultCookieName is the session cookie used in cookie mode.
const DefaultCookieName = "yeti_session"

// ParseAuthMode converts a config value into an AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(s) {
	case AuthBearer, AuthCookie:
		return AuthMode(s), nil
	default:
		return "", fmt.Errorf("unknown auth mode %q (want bearer or cookie)", s)
	}
}

// Strategy decides how the credential travels. It is fixed when the
// Gateway is built.
type Strategy interface {
	// Mode returns the strategy name.
	Mode() AuthMode
	// Attach adds credential to req. credential is never empty.
	Attach(req *http.Request, credential string)
	// Capture extracts a credential issued by the server. ok is false when
	// the response carries none. An empty value with ok means the server
	// cleared it.
	Capture(resp *http.Response) (credential string, ok bool)
}

// NewStrategy returns the Strategy for mode. cookieName is only used in
// cookie mode and defaults to DefaultCookieName.
func NewStrategy(mode AuthMode, cookieName string) (Strategy, error) {
	switch mode {
	case AuthBearer:
		return bearerStrategy{}, nil
	case AuthCookie:
		if cookieName == "" {
			cookieName = DefaultCookieName
		}
		return cookieStrategy{name: cookieName}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}

// bearerStrategy sends Authorization: Bearer <credential> and no cookies.
type bearerStrategy struct{}

func (bearerStrategy) Mode() AuthMode { return AuthBearer }

func (bearerStrategy) Attach(req *http.Request, credential string) {
	req.Header.Set("Authorization", "Bearer "+credential)
}

func (bearerStrategy) Capture(*http.Response) (string, bool) {
	return "", false
}

// cookieStrategy sends the credential as a session cookie and picks up
// Set-Cookie for that name.
type cookieStrategy struct {
	name string
}

func (s cookieStrategy) Mode() AuthMode { return AuthCookie }

func (s cookieStrategy) Attach(req *http.Request, credential string) {
	req.AddCookie(&http.Cookie{Name: s.name, Value: credential})
}

func (s cookieStrategy) Capture(resp *http.Response) (string, bool) {
	for _, c := range resp.Cookies() {
		if c.Name != s.name {
			continue
		}
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			return "", true
		}
		return c.Value, true
	}
	return "", false
}
