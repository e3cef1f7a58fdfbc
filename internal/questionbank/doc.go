// Package questionbank manages the persistent question pool backed by SQLite.
//
// The bank is the durable source of truth for the upload pipeline. Each
// question row carries a usage counter and reservation state. Selection is a
// three-phase protocol: Reserve atomically claims a batch for one in-flight
// job, Commit marks the batch used after a confirmed upload, and Release
// returns it to the eligible pool on any failure. Commit and Release are
// idempotent per reservation token, and stale reservations left behind by a
// crashed run are swept back into the pool before every reservation.
package questionbank
