package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"
)

// User is an account known to the auth service.
type User struct {
	Username string `json:"username" yaml:"username"`
	Role     string `json:"role,omitempty" yaml:"role,omitempty"`
	Active   *bool  `json:"active,omitempty" yaml:"active,omitempty"`
}

// Role is an auth role.
type Role struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Permission map[string]any `json:"permission,omitempty" yaml:"permission,omitempty" table:"wide"`
}

// OAuthProvider is an OAuth identity provider configuration.
type OAuthProvider struct {
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type" yaml:"type"`
	AuthorizeURL string   `json:"authorize_url,omitempty" yaml:"authorize_url,omitempty"`
	TokenURL     string   `json:"token_url,omitempty" yaml:"token_url,omitempty" table:"wide"`
	ClientID     string   `json:"client_id,omitempty" yaml:"client_id,omitempty" table:"wide"`
	ClientSecret string   `json:"client_secret,omitempty" yaml:"-" table:"-"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// AuthOverview holds the counts shown on the auth dashboard.
type AuthOverview struct {
	Users     int `json:"users" yaml:"users"`
	Roles     int `json:"roles" yaml:"roles"`
	Providers int `json:"providers" yaml:"providers"`
}

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.gw.Do(ctx, http.MethodGet, AuthBase+"/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListRoles returns all roles.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if err := c.gw.Do(ctx, http.MethodGet, AuthBase+"/roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// ListAuthProviders returns the providers the auth service accepts logins from.
func (c *Client) ListAuthProviders(ctx context.Context) ([]OAuthProvider, error) {
	var providers []OAuthProvider
	if err := c.gw.Do(ctx, http.MethodGet, AuthBase+"/oauth_providers", nil, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// AuthOverview counts users, roles and providers. A list that cannot be
// fetched counts as 0, unless the session expired.
func (c *Client) AuthOverview(ctx context.Context) (AuthOverview, error) {
	var ov AuthOverview
	var g errgroup.Group

	count := func(path string, dst *int) {
		g.Go(func() error {
			var items []json.RawMessage
			err := c.gw.Do(ctx, http.MethodGet, path, nil, &items)
			if err == nil {
				*dst = len(items)
			}
			return sessionErr(err)
		})
	}
	count(AuthBase+"/users", &ov.Users)
	count(AuthBase+"/roles", &ov.Roles)
	count(AuthBase+"/oauth_providers", &ov.Providers)
	if err := g.Wait(); err != nil {
		return AuthOverview{}, err
	}

	return ov, nil
}

type oauthProviderList struct {
	Providers []OAuthProvider `json:"providers"`
}

// ListOAuthProviders returns the configured OAuth providers.
func (c *Client) ListOAuthProviders(ctx context.Context) ([]OAuthProvider, error) {
	var list oauthProviderList
	if err := c.gw.Do(ctx, http.MethodGet, BasePath+"/oauth_providers", nil, &list); err != nil {
		return nil, err
	}
	return list.Providers, nil
}

// CreateOAuthProvider adds a provider.
func (c *Client) CreateOAuthProvider(ctx context.Context, p OAuthProvider) error {
	return c.gw.Do(ctx, http.MethodPost, BasePath+"/oauth_providers", p, nil)
}

// UpdateOAuthProvider replaces the provider called name.
func (c *Client) UpdateOAuthProvider(ctx context.Context, name string, p OAuthProvider) error {
	return c.gw.Do(ctx, http.MethodPut, BasePath+"/oauth_providers/"+url.PathEscape(name), p, nil)
}

// DeleteOAuthProvider removes the provider called name.
func (c *Client) DeleteOAuthProvider(ctx context.Context, name string) error {
	return c.gw.Do(ctx, http.MethodDelete, BasePath+"/oauth_providers/"+url.PathEscape(name), nil, nil)
}
