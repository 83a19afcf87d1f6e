// Package catalog persists video records in a SQLite-backed store.
//
// The store exposes exactly the operations the crawler and the HTTP surface
// need: lookup by id or file name, conflict-safe insert, whole-record update
// and a full listing. The unique index on file_name is what makes repeated
// crawl passes converge instead of double-inserting.
package catalog
