// Package server provides the HTTP server for the menu dashboard.
//
// It serves the embedded dashboard page at "/", a JSON snapshot of all
// display nodes at "/api/view", and node changes as Server-Sent Events at
// "/api/sse". The server shuts down gracefully when its context is
// cancelled, with a 5-second timeout for in-flight requests.
//
// Users of the menuboard library should not need to interact with this
// package directly. The server is started by [menuboard.Dashboard.Start].
package server
