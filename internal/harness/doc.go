// Package harness replays slot scenarios against a fresh pool.
//
// # Scenario Format
//
// Scenarios are YAML files. Messages are declared once under a label and
// referenced by label everywhere else:
//
//	name: trigger_activation
//	description: "A gated message becomes executable once its key changes"
//	config:
//	  max_length: 10
//	messages:
//	  gated:
//	    emitted: "1:0"
//	    fee: "0.5"
//	    gas: 10
//	    trigger: { contract: token, key: balance }
//	steps:
//	  - settle:
//	      slot: "1:0"
//	      emit: [gated]
//	    expect:
//	      triggered: []
//	  - settle:
//	      slot: "1:1"
//	      ledger_changes:
//	        - { contract: token, kind: update, keys: [balance] }
//	    expect:
//	      triggered: [gated]
//	  - execute: { slot: "1:2", gas: 100 }
//	    expect:
//	      taken: [gated]
//	assertions:
//	  - type: pool_size
//	    count: 0
//	  - type: hash_consistent
//
// # Assertion Types
//
//   - pool_size: the pool holds exactly count entries
//   - pool_contains: every label is stored
//   - pool_excludes: no label is stored
//   - pool_order: the labels are stored in this priority order
//   - executable: every label is stored and can be executed
//   - hash_consistent: the persisted hash equals the recomputed one
//
// # Deterministic Testing
//
// Each scenario runs on a private in-memory SQLite store. Message ids are
// derived from content, and traces refer to labels, so golden traces are
// stable and readable.
package harness
