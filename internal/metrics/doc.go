// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Worker outcomes and the current page cursor
//   - Batch store record results and commit failures
//   - Provider fetch latency
//   - Read API request counts by route and status
//
// All methods are safe to call on a nil *Metrics, so components can run
// with metrics disabled.
package metrics
