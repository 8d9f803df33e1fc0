// Package mode holds the named danger modes (per-activity sensitivity
// profiles) and publishes the one currently selected as an engine override.
package mode
