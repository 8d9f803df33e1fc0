// Package logger wraps zap for the movement-guard binaries.
//
// A global sugared logger with a console encoder is the fallback; components
// receive their logger through context.Context (ToContext, FromContext,
// WithName, WithKV) so every line carries the scope it was produced in.
// Convenience helpers (Infof, WarnKV, ...) log through the context logger.
package logger
