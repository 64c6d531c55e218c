// Package store provides the SQLite-backed ordered key-value store behind the
// asynchronous message pool.
//
// The store holds two partitions (tables):
//   - async_pool: canonical AsyncMessageID bytes -> canonical AsyncMessage bytes
//   - metadata:   single-key values such as the pool integrity hash
//
// # Critical Patterns
//
// Ordered keys:
//   - Both tables are WITHOUT ROWID with a BLOB primary key
//   - SQLite compares BLOBs with memcmp, so ORDER BY id is canonical byte order
//   - Every read that returns more than one row has an explicit ORDER BY
//
// Atomic commits:
//   - All mutations go through a Batch (one SQL transaction)
//   - Data and metadata change inside the same transaction
//   - A Batch that is never committed has no observable effect
//
// Lock discipline:
//   - A sync.RWMutex guards the database handle
//   - Reads, batches and commits take the shared lock
//   - Reset (drop + recreate of async_pool) takes the exclusive lock
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=FULL: finalized state must survive power loss
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - single connection: SQLite has one writer, and ":memory:" databases are per-connection
package store
