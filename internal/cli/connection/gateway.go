package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/yeti-admin/internal/infra/buildinfo"
	"github.com/yndnr/yeti-admin/internal/telemetry/logger"
	"github.com/yndnr/yeti-admin/internal/telemetry/metric"
)

// CredentialStore is the credential holder the Gateway reads and clears.
type CredentialStore interface {
	Get() string
	Set(credential string) error
}

// Request describes one admin API call.
type Request struct {
	Method string
	// Path is joined onto the server URL unless it is already absolute.
	Path string
	// Body is sent as JSON. []byte and json.RawMessage are sent verbatim.
	Body any
	// Header is merged into the request headers.
	Header http.Header
	// Anonymous sends no credential, and a 401 is reported as an ordinary
	// RequestError without ending the session. Used by login.
	Anonymous bool
}

// Gateway performs admin API calls with the session credential attached.
type Gateway struct {
	baseURL   string
	client    *http.Client
	store     CredentialStore
	strategy  Strategy
	timeout   time.Duration
	tlsConfig *tls.Config
	limiter   *rate.Limiter
	userAgent string
	logger    logger.Logger
	metrics   *metric.Registry

	mu        sync.RWMutex
	onExpired []func()
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithStrategy sets the credential strategy. The default is cookie mode
// with DefaultCookieName.
func WithStrategy(s Strategy) Option {
	return func(g *Gateway) {
		g.strategy = s
	}
}

// WithTimeout bounds each call. Zero (the default) means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithTLS sets the client TLS configuration for https servers.
func WithTLS(cfg *tls.Config) Option {
	return func(g *Gateway) {
		g.tlsConfig = cfg
	}
}

// WithRateLimit caps outgoing calls at rps per second. Zero or less
// means unlimited.
func WithRateLimit(rps float64) Option {
	return func(g *Gateway) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithMetrics records request metrics in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(g *Gateway) {
		g.metrics = reg
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(g *Gateway) {
		g.userAgent = ua
	}
}

// NewGateway creates a Gateway for server.
func NewGateway(server string, store CredentialStore, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		store:     store,
		strategy:  cookieStrategy{name: DefaultCookieName},
		userAgent: buildinfo.UserAgent(),
		logger:    logger.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	client, baseURL, err := newTransport(server, g.timeout, g.tlsConfig)
	if err != nil {
		return nil, err
	}
	g.client = client
	g.baseURL = baseURL

	return g, nil
}

// BaseURL returns the URL paths are resolved against.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Strategy returns the credential strategy.
func (g *Gateway) Strategy() Strategy {
	return g.strategy
}

// Credential returns the current credential.
func (g *Gateway) Credential() string {
	return g.store.Get()
}

// OnSessionExpired registers fn to run after a 401 has cleared the
// credential. Callbacks run synchronously on the calling goroutine.
func (g *Gateway) OnSessionExpired(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onExpired = append(g.onExpired, fn)
}

// Do performs a call and decodes a JSON result into out. out may be nil.
// An empty 2xx body leaves out untouched.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	raw, err := g.Request(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	return Decode(raw, out)
}

// Decode unmarshals a gateway result into out. A nil result is a no-op.
func Decode(raw json.RawMessage, out any) error {
	if raw == nil || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &MalformedResponseError{Err: err}
	}
	return nil
}

// Request performs one call. It returns the raw JSON body, or nil for an
// empty 2xx body.
func (g *Gateway) Request(ctx context.Context, r Request) (json.RawMessage, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	bodyReader, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, r.Path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, resolveURL(g.baseURL, r.Path), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := ulid.Make().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", g.userAgent)

	if !r.Anonymous {
		if cred := g.store.Get(); cred != "" {
			g.strategy.Attach(req, cred)
		}
	}

	log := g.logger.WithContext(ctx).With("request_id", requestID, "method", method, "path", r.Path)
	start := time.Now()

	resp, err := g.client.Do(req)
	g.metrics.ObserveRequestDuration(method, time.Since(start).Seconds())
	if err != nil {
		g.metrics.RecordRequest(method, 0)
		log.Debug("admin api request failed", "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, r.Path, err)
	}
	defer resp.Body.Close()

	g.metrics.RecordRequest(method, resp.StatusCode)
	log.Debug("admin api request", "status", resp.StatusCode, "duration", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if cred, ok := g.strategy.Capture(resp); ok && resp.StatusCode != http.StatusUnauthorized {
		if err := g.store.Set(cred); err != nil {
			log.Warn("failed to persist session cookie", "error", err)
		}
	}

	if resp.StatusCode == http.StatusUnauthorized && !r.Anonymous {
		g.expire(log)
		return nil, ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRequestError(resp.StatusCode, data)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	return raw, nil
}

// expire clears the credential and runs the expiry callbacks.
func (g *Gateway) expire(log logger.Logger) {
	log.Info("session rejected by server")
	g.metrics.IncSessionExpired()

	if err := g.store.Set(""); err != nil {
		log.Warn("failed to clear credential", "error", err)
	}

	g.mu.RLock()
	hooks := make([]func(), len(g.onExpired))
	copy(hooks, g.onExpired)
	g.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

// IsSessionExpired reports whether err ended the session.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
