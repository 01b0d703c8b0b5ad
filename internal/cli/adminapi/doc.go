// Package adminapi is a typed client for the Yeti admin endpoints.
//
// Every call goes through a connection.Gateway, so credentials, session
// expiry and error normalization behave the same for all of them.
//
//   - client.go: Client, login and session verification
//   - apps.go: applications, schemas, table counts
//   - auth.go: users, roles, auth providers, OAuth provider management
//   - telemetry.go: logs, spans and metrics with per-app filtering
//   - vectors.go: vector index status
package adminapi
