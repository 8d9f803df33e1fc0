// Package client implements the guard-client operations.
//
// Each operation loads the settings, connects to guard-server and prints the
// result: reading or watching the danger state, acknowledging a danger,
// inspecting and updating the sensitivity profile, selecting a danger mode and
// replaying recorded sensor output.
package client
