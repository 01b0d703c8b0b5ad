package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/yndnr/yeti-admin/internal/cli/connection"
	"github.com/yndnr/yeti-admin/internal/cli/output"
	"github.com/yndnr/yeti-admin/internal/telemetry/logger"
)

// Prompts.
const (
	LoadingPrompt = "Loading..."
	LoginPrompt   = "login: "
	CommandPrompt = "yeti> "
)

// Session is the part of the session manager the shell drives.
type Session interface {
	State() connection.State
	Start(ctx context.Context) error
	Subscribe(fn func(connection.Event)) (unsubscribe func())
}

// Config configures a REPL.
type Config struct {
	// In is read line by line. Pass a *bufio.Reader to share buffering
	// with other readers of the same stream.
	In  io.Reader
	Out io.Writer

	Session Session
	// Login authenticates and starts a session.
	Login func(ctx context.Context, username, password string) error
	// Exec runs one command line, already split into arguments.
	Exec func(ctx context.Context, args []string) error
	// ReadPassword reads a password without echo. When nil the password
	// is read as a plain line from In.
	ReadPassword func() (string, error)

	History   *History
	Completer *Completer
	Logger    logger.Logger
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	cfg       Config
	reader    *bufio.Reader
	history   *History
	completer *Completer
	logger    logger.Logger

	outMu sync.Mutex
}

// New creates a new REPL instance.
func New(cfg Config) (*REPL, error) {
	if cfg.Session == nil || cfg.Login == nil || cfg.Exec == nil {
		return nil, errors.New("repl: session, login and exec are required")
	}
	if cfg.In == nil || cfg.Out == nil {
		return nil, errors.New("repl: input and output are required")
	}

	r := &REPL{
		cfg:       cfg,
		history:   cfg.History,
		completer: cfg.Completer,
		logger:    cfg.Logger,
	}
	if br, ok := cfg.In.(*bufio.Reader); ok {
		r.reader = br
	} else {
		r.reader = bufio.NewReader(cfg.In)
	}
	if r.history == nil {
		r.history = NewHistory("", DefaultHistorySize)
	}
	if r.completer == nil {
		r.completer = NewCompleter(nil)
	}
	if r.logger == nil {
		r.logger = logger.Discard()
	}
	return r, nil
}

// Run starts the loop. It returns nil on exit, quit, EOF or when ctx is
// cancelled between lines.
func (r *REPL) Run(ctx context.Context) error {
	unsubscribe := r.cfg.Session.Subscribe(r.onEvent)
	defer unsubscribe()

	if err := r.history.Load(); err != nil {
		r.logger.Warn("failed to load shell history", "error", err)
	}

	for ctx.Err() == nil {
		var (
			done bool
			err  error
		)
		switch r.cfg.Session.State() {
		case connection.StateUnknown:
			r.println(LoadingPrompt)
			if err := r.cfg.Session.Start(ctx); err != nil {
				r.logger.Debug("session check failed", "error", err)
			}
			continue
		case connection.StateUnauthenticated:
			done, err = r.loginStep(ctx)
		default:
			done, err = r.commandStep(ctx)
		}
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil
}

func (r *REPL) onEvent(ev connection.Event) {
	if ev.Kind == connection.EventReload {
		r.outMu.Lock()
		defer r.outMu.Unlock()
		output.Warning(r.cfg.Out, "Session expired. Please log in again.")
	}
}

func (r *REPL) print(s string) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprint(r.cfg.Out, s)
}

func (r *REPL) println(s string) {
	r.print(s + "\n")
}

// readLine returns the next line. ok is false at end of input.
func (r *REPL) readLine() (line string, ok bool, err error) {
	line, err = r.reader.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

func (r *REPL) loginStep(ctx context.Context) (done bool, err error) {
	r.print(LoginPrompt)
	line, ok, err := r.readLine()
	if err != nil {
		return false, err
	}
	if !ok {
		r.println("")
		return true, nil
	}

	username := strings.TrimSpace(line)
	switch username {
	case "":
		return false, nil
	case "exit", "quit":
		return true, nil
	}

	r.print("Password: ")
	var password string
	if r.cfg.ReadPassword != nil {
		password, err = r.cfg.ReadPassword()
	} else {
		password, ok, err = r.readLine()
		if err == nil && !ok {
			r.println("")
			return true, nil
		}
	}
	if err != nil {
		return false, err
	}

	if err := r.cfg.Login(ctx, username, password); err != nil {
		r.outMu.Lock()
		output.Error(r.cfg.Out, err)
		r.outMu.Unlock()
	}
	return false, nil
}

func (r *REPL) commandStep(ctx context.Context) (done bool, err error) {
	r.print(CommandPrompt)
	line, ok, err := r.readLine()
	if err != nil {
		return false, err
	}
	if !ok {
		r.println("")
		return true, nil
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	r.history.Add(line)

	args, err := SplitArgs(line)
	if err != nil {
		r.println("Error: " + err.Error())
		return false, nil
	}

	switch args[0] {
	case "exit", "quit":
		return true, nil
	case "history":
		for i, e := range r.history.Entries() {
			r.print(fmt.Sprintf("%5d  %s\n", i+1, e))
		}
		return false, nil
	case "shell":
		r.println("Already in the shell.")
		return false, nil
	}

	if !strings.HasPrefix(args[0], "-") && !r.completer.Known(args[0]) {
		r.println(fmt.Sprintf("Unknown command %q.", args[0]))
		if s := r.completer.Suggest(args[0]); len(s) > 0 {
			r.println("Did you mean: " + strings.Join(s, ", ") + "?")
		}
		return false, nil
	}

	if err := r.cfg.Exec(ctx, args); err != nil {
		r.outMu.Lock()
		output.Error(r.cfg.Out, err)
		r.outMu.Unlock()
	}
	return false, nil
}

// SplitArgs splits a command line into arguments. Single and double quotes
// group words; a backslash escapes the next character outside single
// quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
