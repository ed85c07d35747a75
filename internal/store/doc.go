// Package store persists datasets in SQLite and computes exact statistics
// with SQL.
//
// The database holds the term dictionary and the triples in insertion
// order, so a dataset loaded back keeps its term ids and triple order:
//   - terms: id INTEGER PRIMARY KEY, value TEXT UNIQUE
//   - triples: seq INTEGER PRIMARY KEY, subject/predicate/object term ids
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
