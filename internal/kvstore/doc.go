// Package kvstore provides the durable key-value store backing every piece
// of persisted SDK state: retry queues, the campaign cache, session and
// identity keys, and per-campaign frequency bookkeeping.
//
// The core treats the store as an external collaborator behind the Store
// interface. Two implementations ship here: SQLite (production, WAL mode,
// single writer) and Memory (tests). Both guarantee that a Set is atomic -
// a crash mid-write recovers to either the old or the new value, never a
// torn one.
package kvstore
