// Package buildinfo provides build information for yeti-admin.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/yeti-admin/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
