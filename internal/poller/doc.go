// Package poller implements the ingestion worker.
//
// The worker walks the provider's market pages for one currency in strictly
// increasing order:
//   - Fetches the page at the cursor and stores it in one transaction
//   - Advances the cursor only after a page is stored and committed
//   - Holds (or rewinds) the cursor when the provider returns an empty page
//   - Sleeps between iterations for a delay chosen by the iteration outcome
//
// Pages are processed one at a time. The loop never exits on its own; it
// returns only when its context is cancelled.
package poller
