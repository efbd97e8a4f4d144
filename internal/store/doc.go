// Package store is the persistent event store backed by SQLite.
//
// Rows are keyed by a unique content fingerprint. Two kinds of rows coexist:
// auto rows written by the sync engine, and manual rows written by the
// operator workflow. The sync engine's delete+insert reconcile runs inside a
// single transaction so concurrent readers never observe a half-applied run,
// and its delete phase is guarded to auto rows so a manual row can never be
// removed by automation, whatever fingerprints it is handed.
package store
