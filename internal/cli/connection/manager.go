package connection

import (
	"context"
	"net/http"
	"sync"

	"github.com/yndnr/yeti-admin/internal/telemetry/logger"
	"github.com/yndnr/yeti-admin/internal/telemetry/metric"
)

// VerifyPath is the endpoint used to check a stored credential.
const VerifyPath = "/yeti-auth/auth"

// State is the session state.
type State int

// Session states.
const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// EventKind identifies a session event.
type EventKind int

// Session events.
const (
	// EventStateChanged is sent on every state transition.
	EventStateChanged EventKind = iota
	// EventNavigateHome is sent after an explicit logout.
	EventNavigateHome
	// EventReload is sent when the server ended the session and the view
	// should be rebuilt from scratch.
	EventReload
)

// Event is delivered to subscribers.
type Event struct {
	Kind EventKind
	From State
	To   State
}

// Manager is the session state machine. It starts in StateUnknown and
// settles in StateAuthenticated or StateUnauthenticated.
type Manager struct {
	gateway *Gateway
	store   CredentialStore
	logger  logger.Logger
	metrics *metric.Registry

	mu        sync.Mutex
	state     State
	reloading bool
	listeners map[int]func(Event)
	nextID    int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger.
func WithManagerLogger(l logger.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithManagerMetrics records transitions in reg and exposes the live state.
func WithManagerMetrics(reg *metric.Registry) ManagerOption {
	return func(m *Manager) {
		m.metrics = reg
	}
}

// NewManager creates a Manager and hooks it to gw's session expiry.
func NewManager(gw *Gateway, store CredentialStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		gateway:   gw,
		store:     store,
		logger:    logger.Default(),
		state:     StateUnknown,
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.metrics.RegisterSessionState(func() string { return m.State().String() }); err != nil {
		m.logger.Warn("failed to register session state metric", "error", err)
	}

	gw.OnSessionExpired(func() {
		m.Reload(context.Background())
	})
	return m
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for session events and returns a function that
// removes it. fn runs synchronously and must not block.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Start runs the start-up check. It only acts in StateUnknown.
//
// Without a credential the session is unauthenticated and no request is
// made. Otherwise the credential is verified; any failure, including a
// network error, clears it. The returned error is the verification
// failure, for display; the state is settled either way.
func (m *Manager) Start(ctx context.Context) error {
	if m.State() != StateUnknown {
		return nil
	}
	return m.resolve(ctx)
}

// Login stores credential and marks the session authenticated. A persist
// failure is returned but the session is still usable in this process.
func (m *Manager) Login(credential string) error {
	if credential == "" {
		return ErrNoCredential
	}
	err := m.store.Set(credential)
	m.transition(StateAuthenticated)
	return err
}

// Logout clears the credential and sends EventNavigateHome.
func (m *Manager) Logout() error {
	err := m.store.Set("")
	from := m.transition(StateUnauthenticated)
	m.emit(Event{Kind: EventNavigateHome, From: from, To: StateUnauthenticated})
	return err
}

// Reload discards the current view of the session and runs the start-up
// check again. The Gateway calls it after a 401. It does nothing while
// another reload runs or once the session is already logged out, so a
// burst of 401s from parallel requests reloads once.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	if m.reloading || (m.state == StateUnauthenticated && m.store.Get() == "") {
		m.mu.Unlock()
		return nil
	}
	m.reloading = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.reloading = false
		m.mu.Unlock()
	}()

	from := m.transition(StateUnknown)
	m.emit(Event{Kind: EventReload, From: from, To: StateUnknown})
	return m.resolve(ctx)
}

func (m *Manager) resolve(ctx context.Context) error {
	if m.store.Get() == "" {
		m.transition(StateUnauthenticated)
		return nil
	}

	if err := m.gateway.Do(ctx, http.MethodGet, VerifyPath, nil, nil); err != nil {
		m.logger.Info("session verification failed", "error", err)
		if clearErr := m.store.Set(""); clearErr != nil {
			m.logger.Warn("failed to clear credential", "error", clearErr)
		}
		m.transition(StateUnauthenticated)
		return err
	}

	m.transition(StateAuthenticated)
	return nil
}

// transition moves to s, notifying listeners if the state changed, and
// returns the previous state.
func (m *Manager) transition(s State) State {
	m.mu.Lock()
	from := m.state
	m.state = s
	m.mu.Unlock()

	if from != s {
		m.logger.Debug("session state changed", "from", from.String(), "to", s.String())
		m.metrics.RecordTransition(from.String(), s.String())
		m.emit(Event{Kind: EventStateChanged, From: from, To: s})
	}
	return from
}

func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	fns := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
