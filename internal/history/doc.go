// Package history records export runs in a small SQLite database.
//
// Each invocation of the exporter inserts a row when it starts and updates it
// when it finishes, capturing the outcome, the error kind reported by
// services.Kind, and the size and duration of the produced file. The store is
// advisory: callers treat write failures as warnings so a broken history
// database never fails an export.
package history
