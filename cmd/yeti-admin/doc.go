// Package main provides the entry point for yeti-admin.
//
// yeti-admin is the administration console for a Yeti deployment:
//
//   - Session login and logout against the Yeti auth service
//   - Application, schema and record-count inspection
//   - Users, roles and OAuth provider management
//   - Recent telemetry (logs, spans, metrics) and vector index status
//
// Usage:
//
//	yeti-admin login -u admin
//	yeti-admin apps list -o json
//	yeti-admin shell
//
// Build information is injected with:
//
//	-ldflags "-X github.com/yndnr/yeti-admin/internal/infra/buildinfo.Version=v1.0.0"
package main
