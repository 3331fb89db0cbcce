// Package config loads nxbridge settings from YAML.
//
// Values are layered: built-in defaults, then the YAML file, then
// NXBRIDGE_* environment variables. The result is validated before use.
package config
