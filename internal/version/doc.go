// Package version exposes build metadata for guard-server and guard-client.
//
// Version, Commit and BuildTime are injected with -ldflags. When a binary is
// built without them, Commit and BuildTime fall back to the VCS stamp the Go
// toolchain embeds in the build info.
package version
