// Package journal provides append-only sinks for committed shipment
// lifecycle events, with multiple interchangeable backends selected by
// URI:
//
//   - log://                          structured log only
//   - file:///var/log/shipments      JSONL file in a directory
//   - s3://bucket/prefix?region=x    S3 or compatible object store
//   - ipfs://host:port               IPFS node (one object per event)
//   - vault://host:8200?mount=secret&path=shipments   Vault KV v2
//
// Events carry transport tokens and identities only — never plaintext
// shipment data — so the journal is safe to replicate to untrusted
// storage. MultiSink fans out to several backends; event delivery is
// best-effort and a failing backend never fails the emitting operation.
package journal
