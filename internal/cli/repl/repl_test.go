package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/yndnr/yeti-admin/internal/cli/connection"
)

// fakeSession is a scripted session manager.
type fakeSession struct {
	mu        sync.Mutex
	state     connection.State
	startTo   connection.State
	starts    int
	listeners []func(connection.Event)
}

func (s *fakeSession) State() connection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *fakeSession) Start(ctx context.Context) error {
	s.mu.Lock()
	s.starts++
	s.state = s.startTo
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Subscribe(fn func(connection.Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	return func() {}
}

func (s *fakeSession) set(st connection.State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *fakeSession) emit(ev connection.Event) {
	s.mu.Lock()
	ls := append(([]func(connection.Event))(nil), s.listeners...)
	s.mu.Unlock()
	for _, fn := range ls {
		fn(ev)
	}
}

type harness struct {
	sess   *fakeSession
	out    *bytes.Buffer
	execs  [][]string
	logins []string
	repl   *REPL
}

func newHarness(t *testing.T, input string, initial connection.State) *harness {
	t.Helper()
	h := &harness{
		sess: &fakeSession{state: initial, startTo: connection.StateUnauthenticated},
		out:  &bytes.Buffer{},
	}

	r, err := New(Config{
		In:      strings.NewReader(input),
		Out:     h.out,
		Session: h.sess,
		Login: func(ctx context.Context, username, password string) error {
			h.logins = append(h.logins, username+":"+password)
			if password != "secret" {
				return errors.New("Invalid credentials")
			}
			h.sess.set(connection.StateAuthenticated)
			return nil
		},
		Exec: func(ctx context.Context, args []string) error {
			h.execs = append(h.execs, args)
			switch args[0] {
			case "logout":
				h.sess.set(connection.StateUnauthenticated)
			case "fail":
				return errors.New("boom")
			}
			return nil
		},
		Completer: NewCompleter([]string{"apps", "apps list", "auth", "logout", "fail", "status"}),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.repl = r
	return h
}

func (h *harness) run(t *testing.T) {
	t.Helper()
	if err := h.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() with empty config should fail")
	}
}

func TestREPL_ExitWords(t *testing.T) {
	for _, input := range []string{"exit\n", "quit\n", ""} {
		h := newHarness(t, input, connection.StateAuthenticated)
		h.run(t)
		if len(h.execs) != 0 {
			t.Errorf("input %q executed %v", input, h.execs)
		}
	}
}

func TestREPL_LoadingThenLoginPrompt(t *testing.T) {
	h := newHarness(t, "", connection.StateUnknown)
	h.run(t)

	out := h.out.String()
	if !strings.HasPrefix(out, LoadingPrompt+"\n") {
		t.Errorf("output should start with loading prompt, got %q", out)
	}
	if !strings.Contains(out, LoginPrompt) {
		t.Errorf("output missing login prompt: %q", out)
	}
	if h.sess.starts != 1 {
		t.Errorf("Start() calls = %d, want 1", h.sess.starts)
	}
}

func TestREPL_LoginThenCommands(t *testing.T) {
	input := "admin\nwrong\nadmin\nsecret\napps list --filter blog\nstatus\nexit\n"
	h := newHarness(t, input, connection.StateUnauthenticated)
	h.run(t)

	if got := strings.Join(h.logins, ","); got != "admin:wrong,admin:secret" {
		t.Errorf("logins = %s", got)
	}
	if !strings.Contains(h.out.String(), "Invalid credentials") {
		t.Error("failed login message not shown")
	}
	if len(h.execs) != 2 {
		t.Fatalf("execs = %v, want 2", h.execs)
	}
	if strings.Join(h.execs[0], " ") != "apps list --filter blog" {
		t.Errorf("exec[0] = %v", h.execs[0])
	}
	if !strings.Contains(h.out.String(), CommandPrompt) {
		t.Error("command prompt not shown after login")
	}
}

func TestREPL_LogoutReturnsToLogin(t *testing.T) {
	h := newHarness(t, "logout\n", connection.StateAuthenticated)
	h.run(t)

	out := h.out.String()
	idx := strings.Index(out, CommandPrompt)
	if idx < 0 || !strings.Contains(out[idx:], LoginPrompt) {
		t.Errorf("expected login prompt after logout, got %q", out)
	}
}

func TestREPL_CommandErrorKeepsRunning(t *testing.T) {
	h := newHarness(t, "fail\nstatus\n", connection.StateAuthenticated)
	h.run(t)

	if !strings.Contains(h.out.String(), "Error: boom") {
		t.Errorf("output = %q", h.out.String())
	}
	if len(h.execs) != 2 {
		t.Errorf("execs = %v, want 2", h.execs)
	}
}

func TestREPL_UnknownCommand(t *testing.T) {
	h := newHarness(t, "aps\n", connection.StateAuthenticated)
	h.run(t)

	if len(h.execs) != 0 {
		t.Errorf("unknown command executed: %v", h.execs)
	}
	out := h.out.String()
	if !strings.Contains(out, `Unknown command "aps"`) || !strings.Contains(out, "apps") {
		t.Errorf("output = %q", out)
	}
}

func TestREPL_HistoryBuiltin(t *testing.T) {
	h := newHarness(t, "status\nstatus\napps\nhistory\n", connection.StateAuthenticated)
	h.run(t)

	out := h.out.String()
	if !strings.Contains(out, "    1  status") || !strings.Contains(out, "    2  apps") {
		t.Errorf("history output = %q", out)
	}
}

func TestREPL_ReloadEventPrintsNotice(t *testing.T) {
	h := newHarness(t, "", connection.StateAuthenticated)
	h.repl.cfg.Exec = func(ctx context.Context, args []string) error {
		h.sess.emit(connection.Event{Kind: connection.EventReload})
		h.sess.set(connection.StateUnauthenticated)
		return connection.ErrSessionExpired
	}
	h.repl.reader.Reset(strings.NewReader("status\n"))
	h.run(t)

	out := h.out.String()
	if !strings.Contains(out, "Session expired") {
		t.Errorf("output = %q", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), strings.TrimSpace(LoginPrompt)) {
		t.Errorf("expected to end at login prompt, got %q", out)
	}
}

func TestREPL_CancelledContext(t *testing.T) {
	h := newHarness(t, "status\n", connection.StateAuthenticated)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.repl.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(h.execs) != 0 {
		t.Errorf("execs = %v, want none", h.execs)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"apps list", []string{"apps", "list"}, false},
		{"  apps   get  blog ", []string{"apps", "get", "blog"}, false},
		{`auth oauth create --name "my idp"`, []string{"auth", "oauth", "create", "--name", "my idp"}, false},
		{`x 'a "b" c'`, []string{"x", `a "b" c`}, false},
		{`x a\ b`, []string{"x", "a b"}, false},
		{`x ""`, []string{"x", ""}, false},
		{`x "open`, nil, true},
		{`x \`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SplitArgs(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitArgs(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("SplitArgs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
