// Package command provides the CLI command tree of yeti-admin.
//
// It uses urfave/cli/v2 for command parsing and supports both
// single-command mode and the interactive shell, which dispatches each
// line through the same App.
//
// The Before hook assembles a Runtime (configuration, logger, metrics,
// credential store, gateway, session manager and admin client) and
// stores it in App.Metadata. Commands that talk to the admin API call
// requireSession first, which runs the session start-up check.
package command
