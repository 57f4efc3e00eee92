// Package config loads the application configuration from built-in
// defaults, an optional YAML file and MSF_* environment variables, in
// increasing precedence. The configuration covers logging, the reference
// table locations, the check rules and the export format.
package config
