// Package gecko provides the CoinGecko REST client used to pull market snapshots.
//
// REST endpoints:
//   - Public: https://api.coingecko.com/api/v3
//   - Pro:    https://pro-api.coingecko.com/api/v3
//
// Only /coins/markets is consumed. Pages are requested 250 records at a time,
// ordered by descending market capitalization.
package gecko
