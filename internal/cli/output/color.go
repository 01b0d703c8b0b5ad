package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Color modes accepted by SetColorMode.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	cyan   = color.New(color.FgCyan)
	dim    = color.New(color.Faint)
)

// SetColorMode enables or disables colored output. In auto mode color is
// used when stdout is a terminal and NO_COLOR is unset.
func SetColorMode(mode string) error {
	switch strings.ToLower(mode) {
	case "", ColorAuto:
		fd := os.Stdout.Fd()
		tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		color.NoColor = !tty || os.Getenv("NO_COLOR") != ""
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	default:
		return fmt.Errorf("unknown color mode %q (want auto, always or never)", mode)
	}
	return nil
}

// Success prints a green check line.
func Success(w io.Writer, format string, args ...any) {
	green.Fprintf(w, "✓ "+format+"\n", args...)
}

// Warning prints a yellow line.
func Warning(w io.Writer, format string, args ...any) {
	yellow.Fprintf(w, format+"\n", args...)
}

// Error prints a red error line.
func Error(w io.Writer, err error) {
	red.Fprintf(w, "Error: %v\n", err)
}

// Heading prints a cyan section title.
func Heading(w io.Writer, title string) {
	cyan.Fprintln(w, title)
}

// Dim renders s in a faint style.
func Dim(s string) string {
	return dim.Sprint(s)
}

// StateLabel colors a session state name.
func StateLabel(state string) string {
	switch state {
	case "authenticated":
		return green.Sprint(state)
	case "unauthenticated":
		return red.Sprint(state)
	default:
		return yellow.Sprint(state)
	}
}

// LevelLabel colors a log level.
func LevelLabel(level string) string {
	switch strings.ToUpper(level) {
	case "ERROR", "FATAL":
		return red.Sprint(level)
	case "WARN", "WARNING":
		return yellow.Sprint(level)
	case "DEBUG", "TRACE":
		return dim.Sprint(level)
	default:
		return level
	}
}
