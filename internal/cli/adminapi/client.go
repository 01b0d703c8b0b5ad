package adminapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yndnr/yeti-admin/internal/cli/connection"
)

// Endpoint prefixes.
const (
	BasePath      = "/admin"
	AuthBase      = "/yeti-auth"
	TelemetryBase = "/yeti-telemetry"
	VectorsBase   = "/yeti-vectors"
)

// DefaultLoginError is shown when a failed login carries no message.
const DefaultLoginError = "Login failed"

// LoginError is a rejected login. Message is the server's response text.
type LoginError struct {
	StatusCode int
	Message    string
}

func (e *LoginError) Error() string {
	return e.Message
}

// Client calls the admin API.
type Client struct {
	gw *connection.Gateway
}

// New creates a Client on top of gw.
func New(gw *connection.Gateway) *Client {
	return &Client{gw: gw}
}

// Gateway returns the underlying gateway.
func (c *Client) Gateway() *connection.Gateway {
	return c.gw
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken      string `json:"access_token"`
	AccessTokenCamel string `json:"accessToken"`
	Token            string `json:"token"`
}

func (r loginResponse) credential() string {
	switch {
	case r.AccessToken != "":
		return r.AccessToken
	case r.AccessTokenCamel != "":
		return r.AccessTokenCamel
	default:
		return r.Token
	}
}

// Authenticate exchanges username and password for a session credential.
// It does not change the session; pass the result to Manager.Login.
//
// The credential is taken from access_token, accessToken or token in the
// response body. In cookie mode a session cookie set by the response is
// accepted when the body has none.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	before := c.gw.Credential()

	raw, err := c.gw.Request(ctx, connection.Request{
		Method:    http.MethodPost,
		Path:      AuthBase + "/login",
		Body:      loginRequest{Username: username, Password: password},
		Anonymous: true,
	})
	if err != nil {
		var re *connection.RequestError
		if errors.As(err, &re) {
			msg := re.Body
			if msg == "" {
				msg = DefaultLoginError
			}
			return "", &LoginError{StatusCode: re.StatusCode, Message: msg}
		}
		return "", err
	}

	var resp loginResponse
	if err := connection.Decode(raw, &resp); err != nil {
		return "", err
	}
	if cred := resp.credential(); cred != "" {
		return cred, nil
	}

	if c.gw.Strategy().Mode() == connection.AuthCookie {
		if after := c.gw.Credential(); after != "" && after != before {
			return after, nil
		}
	}
	return "", &LoginError{StatusCode: http.StatusOK, Message: DefaultLoginError + ": no credential in response"}
}

// VerifySession checks the current credential with the auth service.
func (c *Client) VerifySession(ctx context.Context) error {
	if err := c.gw.Do(ctx, http.MethodGet, connection.VerifyPath, nil, nil); err != nil {
		return fmt.Errorf("verify session: %w", err)
	}
	return nil
}

// sessionErr keeps err only when it ended the session. Best-effort
// fetches use it so other failures degrade to empty values.
func sessionErr(err error) error {
	if connection.IsSessionExpired(err) {
		return err
	}
	return nil
}
