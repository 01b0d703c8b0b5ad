// Package tlsroots builds the client TLS configuration used to reach a
// Yeti server: extra trusted CAs on top of the system roots, an optional
// client certificate, and the insecure escape hatch for local testing.
package tlsroots
