package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/yeti-admin/internal/cli/connection"
	"github.com/yndnr/yeti-admin/internal/cli/output"
	"github.com/yndnr/yeti-admin/pkg/token"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in to the Yeti server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Username (prompted when omitted)",
				EnvVars: []string{"YETI_USERNAME"},
			},
			&cli.BoolFlag{
				Name:  "password-stdin",
				Usage: "Read the password from stdin",
			},
		},
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}

	username := c.String("username")
	if username == "" {
		fmt.Fprint(rt.Out, "Username: ")
		if username, err = rt.readLine(); err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(username)
	}
	if username == "" {
		return errors.New("username required")
	}

	var password string
	if c.Bool("password-stdin") {
		data, err := io.ReadAll(rt.reader())
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(string(data), "\r\n")
	} else {
		if password, err = rt.readPassword("Password: "); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	return rt.login(c.Context, username, password)
}

// login authenticates and starts the session.
func (rt *Runtime) login(ctx context.Context, username, password string) error {
	cred, err := rt.Client.Authenticate(ctx, username, password)
	if err != nil {
		rt.Metrics.RecordLogin("failure")
		rt.Logger.Info("login rejected", "username", username, "error", err)
		return err
	}

	if err := rt.Manager.Login(cred); err != nil {
		// The session still works for this process.
		output.Warning(rt.Err, "warning: credential not saved: %v", err)
	}
	rt.Metrics.RecordLogin("success")
	rt.Logger.Info("logged in", "username", username, "credential", token.Fingerprint(cred))

	output.Success(rt.Out, "Logged in to %s as %s", rt.Gateway.BaseURL(), username)
	return nil
}

// readPassword prompts for a password, hiding input on a terminal.
func (rt *Runtime) readPassword(prompt string) (string, error) {
	fmt.Fprint(rt.Out, prompt)
	return rt.readSecret()
}

// readSecret reads a line without echo when input is a terminal.
func (rt *Runtime) readSecret() (string, error) {
	if f, ok := rt.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(rt.Out)
		return string(b), err
	}
	return rt.readLine()
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored session",
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}

	if err := rt.Manager.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	output.Success(rt.Out, "Logged out")
	return nil
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the session state",
		Action: statusAction,
	}
}

// SessionStatus is the result of the status command.
type SessionStatus struct {
	Server      string     `json:"server" yaml:"server"`
	AuthMode    string     `json:"auth_mode" yaml:"auth_mode"`
	State       string     `json:"state" yaml:"state"`
	Credential  string     `json:"credential,omitempty" yaml:"credential,omitempty"`
	Subject     string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Issuer      string     `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	VerifyError string     `json:"verify_error,omitempty" yaml:"verify_error,omitempty"`
}

func statusAction(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}

	st := SessionStatus{
		Server:   rt.Gateway.BaseURL(),
		AuthMode: string(rt.Gateway.Strategy().Mode()),
	}
	if err := rt.Manager.Start(c.Context); err != nil && !connection.IsSessionExpired(err) {
		st.VerifyError = err.Error()
	}
	st.State = rt.Manager.State().String()

	cred := rt.Store.Get()
	if cred != "" {
		st.Credential = token.Fingerprint(cred)
		if info, err := token.Claims(cred); err == nil {
			st.Subject = info.Subject
			st.Issuer = info.Issuer
			if !info.ExpiresAt.IsZero() {
				st.ExpiresAt = &info.ExpiresAt
			}
		}
	}

	if !rt.tableOutput(c) {
		return rt.print(c, st)
	}

	fmt.Fprintf(rt.Out, "Server:     %s\n", st.Server)
	fmt.Fprintf(rt.Out, "Auth mode:  %s\n", st.AuthMode)
	fmt.Fprintf(rt.Out, "State:      %s\n", output.StateLabel(st.State))
	if st.Credential != "" {
		fmt.Fprintf(rt.Out, "Credential: %s\n", st.Credential)
	}
	if st.Subject != "" {
		fmt.Fprintf(rt.Out, "Subject:    %s\n", st.Subject)
	}
	if st.ExpiresAt != nil {
		fmt.Fprintf(rt.Out, "Expires:    %s (%s)\n", st.ExpiresAt.Local().Format(time.DateTime), humanize.Time(*st.ExpiresAt))
	}
	if st.VerifyError != "" {
		output.Warning(rt.Out, "Verify:     %s", st.VerifyError)
	}
	return nil
}
