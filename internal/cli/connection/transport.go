package connection

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// unixBaseURL is the placeholder host for requests sent over a unix socket.
const unixBaseURL = "http://unix"

// newTransport builds the HTTP client and base URL for server.
//
// Accepted forms:
//
//	https://yeti.example.com
//	http://localhost:9925
//	localhost:9925            (http assumed)
//	unix:///run/yeti/admin.sock
//
// tlsCfg applies to https servers; nil keeps Go's defaults.
func newTransport(server string, timeout time.Duration, tlsCfg *tls.Config) (*http.Client, string, error) {
	if strings.HasPrefix(server, "unix://") {
		u, err := url.Parse(server)
		if err != nil {
			return nil, "", fmt.Errorf("parse server url: %w", err)
		}
		socketPath := u.Path
		if socketPath == "" {
			return nil, "", fmt.Errorf("unix server url %q has no socket path", server)
		}

		dialer := &net.Dialer{}
		transport := &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return dialer.DialContext(ctx, "unix", socketPath)
			},
		}
		return &http.Client{Transport: transport, Timeout: timeout}, unixBaseURL, nil
	}

	baseURL := server
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse server url: %w", err)
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("server url %q has no host", server)
	}

	client := &http.Client{Timeout: timeout}
	if tlsCfg != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsCfg
		client.Transport = transport
	}
	return client, strings.TrimRight(baseURL, "/"), nil
}

// resolveURL joins path onto baseURL. Absolute URLs are used as given.
func resolveURL(baseURL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return baseURL + path
}
