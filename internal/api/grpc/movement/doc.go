// Package movement implements the gRPC transport for the movement guard.
//
// It converts domain values to the struct messages of package pb and maps
// domain errors to gRPC status codes.
package movement
