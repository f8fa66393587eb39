// Package store provides SQLite-backed durable storage for call-preparation
// data.
//
// Three collections, each keyed by an opaque unique id:
//   - Projects: sales engagements, with a denormalized recording_ids list
//   - Recordings: audio sessions owned by a project, payload stored as BLOB
//   - Analyses: immutable coverage-analysis snapshots owned by a recording
//
// # Consistency model
//
// Operations against one collection are atomic. Composite operations
// (cascading deletes, back-reference maintenance) run as a sequence of
// per-collection transactions and are NOT atomic as a unit: two concurrent
// cascades over overlapping entities race, and the result is undefined.
// Callers follow a single-writer-at-a-time usage pattern.
//
// Cascading deletes are guarded by a write-ahead intent log
// (cascade_intents). The intent is written before the first step, each step
// is marked as it commits, and Open resumes any pending cascade, so a crash
// mid-cascade is repaired on the next startup instead of leaving orphans.
// A cascade that fails partway at runtime surfaces a CascadeError naming
// the committed steps; it is never silently swallowed.
//
// # Column typing
//
// Every column carries its entity type explicitly: temporal fields are
// dedicated RFC 3339 TEXT columns, nested objects are JSON TEXT, audio
// payloads are BLOBs copied byte-for-byte. Decoding never infers a field's
// type from the shape of its value.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Standard connection setup. The schema declares no
//     FOREIGN KEY constraints (child rows may outlive or precede their
//     parent), so cross-collection references are maintained in code.
package store
