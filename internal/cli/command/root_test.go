package command

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestApp_Commands(t *testing.T) {
	app := App()
	for _, name := range []string{"login", "logout", "status", "apps", "auth", "telemetry", "vectors", "benchmarks", "config", "shell"} {
		if app.Command(name) == nil {
			t.Errorf("command %q missing", name)
		}
	}
}

func TestLogin_PasswordStdin(t *testing.T) {
	env := newTestEnv(t, nil)

	stdout, _, err := env.run(testPassword+"\n", "login", "-u", testUser, "--password-stdin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(stdout, "Logged in to "+env.server.URL+" as admin") {
		t.Errorf("stdout = %q", stdout)
	}
	if got := env.storedCredential(); got != env.server.currentToken() {
		t.Errorf("stored credential = %q", got)
	}
}

func TestLogin_Prompts(t *testing.T) {
	env := newTestEnv(t, nil)

	stdout, _, err := env.run(testUser+"\n"+testPassword+"\n", "login")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(stdout, "Username: ") || !strings.Contains(stdout, "Password: ") {
		t.Errorf("prompts missing from %q", stdout)
	}
	if env.storedCredential() == "" {
		t.Error("credential not stored")
	}
}

func TestLogin_Rejected(t *testing.T) {
	env := newTestEnv(t, nil)

	_, _, err := env.run("wrong", "login", "-u", testUser, "--password-stdin")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Errorf("error = %v", err)
	}
	if got := env.storedCredential(); got != "" {
		t.Errorf("stored credential = %q", got)
	}
}

func TestLogin_EmptyUsername(t *testing.T) {
	env := newTestEnv(t, nil)

	_, _, err := env.run("\n", "login")
	if err == nil || !strings.Contains(err.Error(), "username required") {
		t.Errorf("error = %v", err)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login()

	stdout, _, err := env.run("", "logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(stdout, "Logged out") {
		t.Errorf("stdout = %q", stdout)
	}
	if got := env.storedCredential(); got != "" {
		t.Errorf("stored credential = %q", got)
	}
}

func TestStatus_Authenticated(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login()

	stdout, _, err := env.run("", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"State:      authenticated", "Auth mode:  bearer", "Subject:    admin", "Expires:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestStatus_JSON(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login()

	stdout, _, err := env.run("", "-o", "json", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	var st SessionStatus
	if err := json.Unmarshal([]byte(stdout), &st); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if st.State != "authenticated" || st.Subject != testUser || st.Issuer != "yeti-auth" {
		t.Errorf("status = %+v", st)
	}
	if st.ExpiresAt == nil {
		t.Error("expires_at missing")
	}
	if st.Credential == "" || st.Credential == env.server.currentToken() {
		t.Errorf("credential = %q, want a fingerprint", st.Credential)
	}
}

func TestStatus_StaleCredential(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login()
	env.server.rotate()

	stdout, _, err := env.run("", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "State:      unauthenticated") {
		t.Errorf("stdout = %q", stdout)
	}
	if strings.Contains(stdout, "Credential:") {
		t.Errorf("cleared credential still shown: %q", stdout)
	}
	if got := env.storedCredential(); got != "" {
		t.Errorf("stored credential = %q", got)
	}
}

func TestRequireSession_NotLoggedIn(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, args := range [][]string{
		{"apps", "list"},
		{"auth", "users"},
		{"telemetry", "logs"},
		{"vectors", "status"},
	} {
		_, _, err := env.run("", args...)
		if !errors.Is(err, ErrNotLoggedIn) {
			t.Errorf("%v: error = %v, want ErrNotLoggedIn", args, err)
		}
	}
	if env.server.requested(http.MethodGet + " /yeti-auth/auth") {
		t.Error("verified a session without a credential")
	}
}

func TestRequireSession_Rejected(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login()
	env.server.rotate()

	_, _, err := env.run("", "apps", "list")
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("error = %v, want ErrNotLoggedIn", err)
	}
	if got := env.storedCredential(); got != "" {
		t.Errorf("stored credential = %q", got)
	}
}

func TestGlobalFlags_InvalidOutput(t *testing.T) {
	env := newTestEnv(t, nil)

	_, _, err := env.run("", "-o", "xml", "config", "path")
	if err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestCommandWords(t *testing.T) {
	cmds := []*cli.Command{
		{
			Name:    "apps",
			Aliases: []string{"app"},
			Subcommands: []*cli.Command{
				{Name: "list", Aliases: []string{"ls"}},
				{Name: "get"},
			},
		},
		{Name: "secret", Hidden: true},
		{Name: "status"},
	}

	got := commandWords(cmds, "")
	want := []string{"apps", "apps list", "apps ls", "apps get", "app", "app list", "app ls", "app get", "status"}
	if !slices.Equal(got, want) {
		t.Errorf("commandWords = %v, want %v", got, want)
	}
}
