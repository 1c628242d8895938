// Package ccs provides implementations of the Confidential Computation
// Service contract (interfaces.ConfidentialCompute).
//
// # Simulated Engine
//
// SimulatedEngine is a deterministic in-process implementation keyed by a
// 32-byte sealing key. It seals plaintexts with NaCl secretbox so no
// plaintext sits in memory outside an operation, verifies submission
// proofs as secp256k1 signatures over keccak256(ciphertext || shipment),
// and keeps append-only use/view grant sets per handle. It is the engine
// used in tests and single-node deployments.
//
// # Remote Service
//
// RemoteService forwards every call to an external service over HTTP.
// Endpoints can be listed explicitly or discovered through DNS SRV
// records (ResolveEndpoints). Trusted-input casts attach an attestation
// quote from the configured attest.Provider.
//
// # Sealing Key Bootstrap
//
// The sealing key is supplied either directly (hex seed) or reassembled
// from Shamir shares held by separate operators, so no single operator
// ever holds the key alone.
package ccs
