// Package cache provides a Redis read-through cache for single-symbol lookups.
//
// Entries are JSON-encoded market records under "market:latest:<symbol>" and
// expire after a fixed TTL. Redis failures are logged and fall through to the
// backing store; they never fail a lookup.
package cache
