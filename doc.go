// Package menuboard keeps a menu status dashboard up to date by polling
// the menu service's status endpoint.
//
// On every cycle the dashboard issues one GET to the configured source,
// decodes the JSON body and either renders it into a fixed set of display
// nodes or shows an error banner. Browsers receive node changes from the
// embedded dashboard page over Server-Sent Events.
//
// # Quick Start
//
//	d, _ := menuboard.New(menuboard.WithSource("http://localhost:5000"))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	d.Start(ctx) // blocks until ctx is cancelled
//
// To run only the refresh cycle, without the HTTP server:
//
//	h := d.Poll(ctx)
//	defer h.Stop()
//
// # Display nodes
//
// Nodes are addressed by element identifier:
//
//   - nextMenuDate: send_date as a locale short date, or "Invalid Date"
//   - menuSeason: season, verbatim
//   - errorMessages: the error banner, empty while the display is nominal
//
// More nodes can be bound to values of the status document with
// [WithField].
//
// # Errors
//
// A response whose "error" field is set is shown verbatim and leaves the
// other nodes untouched. Any failure before a usable body is obtained is
// shown as [GenericErrorMessage]; the cause is logged with a correlation
// id. Messages are always inserted as text. There are no retries: the next
// cycle is the only recovery.
//
// # Ordering
//
// Cycles overlap when a request outlives the polling interval. Every cycle
// carries a sequence number and results older than the newest applied one
// are discarded, so the display always reflects the latest request.
package menuboard
