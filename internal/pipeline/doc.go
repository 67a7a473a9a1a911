// Package pipeline implements the event/profile ingestion pipeline: session
// windowing, request building, send-or-enqueue failure handling, and the
// bulk drain of the persisted retry queues.
//
// ARCHITECTURE
//
// Single-writer task loop:
// Every operation (Track, Identify, Logout, ...) is enqueued as a task onto
// a FIFO queue drained by one worker goroutine. Callers never block and
// never observe network latency. Because the worker is the only goroutine
// touching pipeline state and the only one issuing sends, events go out in
// the order Track was called.
//
// Retry model:
// A send rejected by the server pushes the fully-built request (device
// snapshot resolved at enqueue time) onto a bounded persisted queue. Any
// later successful send triggers a bulk drain of both queues; a failed
// drain restores the exact drained snapshot. A retried record can
// therefore be resent out of order relative to events tracked after the
// original failure.
//
// Local bookkeeping (delegate notification, session state, last-event
// time) never depends on network success.
package pipeline
