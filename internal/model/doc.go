// Package model defines the data model of the finalized asynchronous message pool
// and its canonical binary encoding.
//
// This package contains types, the codec and hashing only. Every other internal
// package imports model; model imports nothing internal. This keeps the canonical
// byte representation in one place: the bytes produced here are what get stored,
// hashed and streamed to bootstrapping nodes.
//
// Key design constraints:
//   - Every node must produce byte-identical encodings from the same inputs
//   - AsyncMessageID bytes sort (memcmp) in descending execution priority
//   - Decoding never trusts its input: bounds and field ranges are checked and
//     violations are reported as MalformedData
//   - Slots are logical positions (period, thread), never wall-clock time
package model
