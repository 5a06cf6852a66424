// Package database provides PostgreSQL connection pooling and the market_data table.
//
// The table holds exactly one row per provider coin id: the latest snapshot.
// Rows are written by the writer package and read back by symbol for the
// cached read path.
package database
