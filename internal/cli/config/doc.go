// Package config provides CLI configuration for yeti-admin.
//
//   - spec.go: CLIConfig struct (~/.yeti/admin.yaml)
//   - loader.go: layered loading (defaults, file, YETI_* env, flags) and saving
//
// Configuration includes the server URL, the session strategy (bearer or
// cookie), where the session credential is kept, output preferences,
// logging and the optional metrics textfile.
package config
