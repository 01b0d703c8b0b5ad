// Package logger provides structured logging for yeti-admin.
//
// It wraps the standard library log/slog:
//
//   - logger.go: Logger interface, configuration and level control
//   - console.go: the default handler, one "warning: msg key=value" line per record
//   - redact.go: Sensitive data redaction
//
// The CLI logs to stderr at warn level by default; --verbose lowers the
// level to debug. Credentials, passwords and cookies are never written in
// clear.
package logger
