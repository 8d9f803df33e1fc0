// Package config defines the YAML settings used by guard-server and
// guard-client and provides helpers to load, validate and save them.
//
// Besides connection settings it carries the explicit sensitivity profile,
// the named danger modes (per-activity profiles) and the optional serial IMU.
package config
