// Package config holds the wikigrab configuration: defaults, validation,
// the optional .wikigrab YAML file and XDG directory helpers.
//
// Precedence is flag > file > default. A file value is applied only when the
// matching flag was not set on the command line.
package config
