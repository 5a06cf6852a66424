// Package writer implements the batch store for provider pages.
//
// A page is written in one transaction. Each record is upserted inside its own
// savepoint so a failing row rolls back alone and the rest of the page still
// commits. Rows are keyed by provider coin id and every other column is
// overwritten on conflict.
package writer
