// Package repl provides the interactive shell of yeti-admin.
//
// The prompt follows the session state: "Loading..." while the session is
// being checked, "login: " when there is no session and "yeti> " once
// logged in. Command lines are handed to an executor, which in practice
// runs them through the same command tree as single-command mode.
package repl
