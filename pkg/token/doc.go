// Package token provides helpers for handling opaque session credentials
// without exposing them.
//
// Credentials are never logged. Fingerprint gives a short, stable
// identifier that can be logged and compared instead, and Claims decodes
// JWT-shaped credentials for display.
//
// Claims does not verify signatures. The server is the only authority on
// whether a credential is valid.
package token
