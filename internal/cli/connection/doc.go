// Package connection provides authenticated access to the Yeti admin API.
//
//   - gateway.go: Gateway, the single path every admin API call takes
//   - strategy.go: bearer and cookie credential strategies
//   - transport.go: http(s) and unix socket transports
//   - manager.go: session state machine (unknown, authenticated, unauthenticated)
//   - errors.go: session expired, request and malformed response errors
//
// A 401 on any authenticated call clears the stored credential and tells
// the Manager to reload, which settles the session as unauthenticated.
// Calls are never retried.
package connection
