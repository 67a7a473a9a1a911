// Package value provides the closed property value variant used throughout
// event and profile payloads.
//
// Host applications hand the SDK loose map[string]any dictionaries. Those are
// converted once, at the API boundary, into the sealed Value types below.
// Everything past the boundary (queueing, persistence, rule evaluation, wire
// encoding) operates on Value and never type-sniffs raw interface values.
//
// The variant is deliberately closed: string | int | float | bool | null |
// array | object. Anything else is rejected at conversion time.
package value
