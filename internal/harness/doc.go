// Package harness runs scenario-driven conformance tests against the
// ingestion pipeline.
//
// A scenario is a YAML file describing a sequence of SDK operations plus
// clock and network manipulations. The harness executes the sequence
// against an in-memory pipeline with a recording sender and produces a
// transcript of every outbound request. Transcripts are compared against
// golden files, so session windowing, identity transitions, and retry
// drains are pinned end to end.
//
// # Scenario format
//
//	name: session_window
//	description: "Tracks across the inactivity gap renew the session"
//	steps:
//	  - op: track
//	    event: view_home
//	  - op: advance
//	    minutes: 31
//	  - op: track
//	    event: view_cart
//
// Supported ops: track, page_view, purchase, identify, login, logout,
// flush_user, set_push_token, update_device, advance, network.
//
// # Determinism
//
// Every run uses a frozen fake clock, sequential session ids, a fixed
// device snapshot, and a pre-seeded local device id. The worker queue is
// flushed after every step, so transcript order is stable across runs.
package harness
