// Package view holds the named display nodes a dashboard renders into.
//
// A node is the server-side counterpart of a DOM element addressed by id:
// it carries either plain text or markup that has already been escaped.
// The package implements a publish-subscribe pattern so connected browsers
// receive node changes in real time.
//
// The main components are:
//
//   - [Document]: Interface defining node writes, reads and subscriptions
//   - [MemoryDocument]: In-memory implementation of Document
//   - [Node]: A single display node
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers miss updates rather than block rendering).
package view
