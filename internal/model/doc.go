// Package model defines shared data types used across the price feed.
//
// All types mirror the market_data table and the provider's /coins/markets payload.
//
// Conventions:
//   - Every provider field is optional and modelled as a pointer
//   - Prices and supplies: float64 in the quote currency
//   - Timestamps: time.Time in UTC, nil when absent or unparseable
//   - IDs: provider coin id (e.g. "bitcoin"), the market_data primary key
package model
