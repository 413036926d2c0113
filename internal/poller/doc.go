// Package poller fetches the menu status document on a fixed interval.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeout and size limit
//   - [Scheduler]: Fires one fetch immediately and one per interval
//   - [Result]: Sequence-numbered outcome of one cycle
//
// Users of the menuboard library should not need to interact with this
// package directly. Configuration is done through the main menuboard package.
package poller
