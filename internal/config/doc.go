// Package config defines configuration for the pluginfetch CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (pf4j.pluginsDir, PF4J_ prefix)
//   - YAML configuration file
//
// The staging directory defaults to "plugins", relative to the working
// directory. It is read once at startup and handed to the client
// explicitly.
//
// # File format
//
//	plugins_dir: /var/lib/app/plugins
//	stream_attempts: 3
//	timeout: 2m
//	user_agent: app/1.0
//	serialize: true
//	remove_partial: false
//	progress: true
//	log_level: debug
//	throttle:
//	  rps: 5
//	  burst: 2
package config
