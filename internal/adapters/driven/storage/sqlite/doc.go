// Package sqlite opens the relational chapter and job stores on a local
// SQLite database using the pure Go modernc driver.
//
// The database lives at <data dir>/digest.db, ~/.digest/data by default.
// It is opened in WAL mode with a busy timeout, and foreign keys are
// enabled on every pooled connection so deletes cascade.
package sqlite
