// Package credential owns the admin session credential.
//
// Store holds at most one opaque credential. It is read from durable
// storage once at construction and written through on every change, so a
// session survives restarts of the CLI until it is cleared by logout or by
// the server rejecting it. Set is the only mutation path.
package credential
