// Package confloader loads layered configuration with koanf.
//
// Sources, later ones overriding earlier:
//
//  1. Defaults, loaded with LoadMap
//  2. A YAML configuration file
//  3. Environment variables (YETI_ prefix by default)
//  4. Command-line flags, loaded with LoadMap by the caller
//
// Watcher reports changes to a configuration file so long running
// processes such as the interactive shell can reload.
package confloader
