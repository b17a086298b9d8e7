// Package store provides the SQLite-backed build journal.
//
// The journal is append-only and holds three tables:
//   - builds: one row per Machine.Build call, updated once when it ends
//   - iterations: one row per iteration, keyed by (build_id, idx)
//   - artifacts: candidate code, content-addressed by artifact.ID
//
// Identical code produced by different iterations or builds is stored once.
// Writes are idempotent (ON CONFLICT DO NOTHING), so replaying the same
// observer events leaves the journal unchanged.
//
// # Ordering
//
// Iterations are always read ORDER BY idx ASC. Builds are listed newest
// first, ties broken by id COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
