// Package warehouse persists the dimensional model to PostgreSQL.
//
// Loads use replace semantics: each table load runs in its own
// transaction that deletes the previous contents and inserts the new
// rows, so a run either fully replaces a table or leaves it untouched.
// Fact foreign keys cascade on dimension deletes, which keeps
// referential integrity intact across the per-table transactions of a
// full reload.
package warehouse
