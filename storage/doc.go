// Package storage defines the vector store abstraction for medrecall.
//
// The store holds one VectorRecord per text unit, keyed by the unit's
// deterministic ID. Upserts are atomic per ID, so re-indexing a subject
// replaces records instead of duplicating them, and similarity queries are
// always scoped to one subject.
//
// The storage/badger sub-package provides the BadgerDB implementation.
package storage
