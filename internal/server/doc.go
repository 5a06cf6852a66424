// Package server implements the read API.
//
// Routes:
//   - GET /health_check           fixed liveness payload
//   - GET /market?currency&page   live provider page, optionally persisted
//   - GET /market/latest?symbol   newest stored row for a symbol
//   - GET /metrics                Prometheus exposition, when enabled
//
// Errors are rendered as {"code": <status>, "message": "..."}.
package server
