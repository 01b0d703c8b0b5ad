// Package output renders command results for yeti-admin.
//
// Results are rendered as a table, JSON or YAML:
//
//   - formatter.go: Formatter interface and factory
//   - table.go: reflection-based table rendering with wide mode
//   - json.go, yaml.go: machine-readable output
//   - color.go: terminal color handling
//   - spinner.go, progress.go: feedback for slow operations
//
// Struct fields tagged `table:"wide"` are shown only in wide mode, and
// fields tagged `table:"-"` are never shown in tables.
package output
