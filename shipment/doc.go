// Package shipment implements the confidential shipment core: the
// registry arena of shipment records, the authorization guard, the
// lifecycle state machine, the ACL grant operations and the read-only
// query facade.
//
// The core enforces ordering and authorization invariants over data it
// can never inspect. Every check is expressible without decrypting
// anything: record existence, caller membership in the registered party
// set, and the explicit lifecycle state. All cryptographic work is
// delegated to the ciphertext handle vault.
//
// # Sequencing
//
// A single RWMutex acts as the global sequencer. Mutating operations
// hold the write lock end-to-end — precondition checks, vault calls,
// state update and event emission — so operations are atomic: either
// every check passes and everything commits together, or nothing
// changes. Queries take the read lock and observe only committed state.
package shipment
