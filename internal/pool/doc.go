// Package pool implements the finalized asynchronous message pool: a bounded,
// priority-ordered, persistently backed set of deferred contract calls that
// every node must compute identically.
//
// # Operations
//
//   - SettleSlot: per-slot expiry, ingestion, capacity eviction and trigger activation
//   - TakeBatchToExecute: greedy selection of executable messages under a gas budget
//   - ApplyChangesToBatch: replay of a precomputed Add/Activate/Delete change set
//   - GetPoolPart / SetPoolPart: cursor-driven chunked transfer for bootstrap
//
// # Integrity Hash
//
// The pool hash is the XOR of EntryHash(id, message) over every stored entry,
// starting from the all-zero hash. Every mutation updates it incrementally
// inside the same Batch that mutates the data, so the persisted hash always
// matches the persisted entries.
//
// # Failure Model
//
// Every error returned by this package is fatal for the node: the store is
// consensus state, and continuing after a store or codec failure could fork.
// A failed operation never commits.
package pool
