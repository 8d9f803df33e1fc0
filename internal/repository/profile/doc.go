// Package profile persists the explicit sensitivity profile across restarts.
//
// The FileRepository stores the profile as protobuf JSON on disk, in the same
// struct layout the gRPC API uses. The danger state is never persisted.
package profile
