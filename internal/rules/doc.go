// Package rules implements trigger-condition evaluation: matching an
// incoming event (and the current device snapshot) against server-authored
// OR-of-AND condition trees.
//
// Evaluation is pure: no I/O, no stored state. Every function takes the
// evaluation instant explicitly so tests control the clock.
//
// The operator set is fixed and closed. Any unknown operator/data-type
// combination, unparseable value, or mistyped target evaluates to false
// rather than guessing: a malformed campaign must never fire.
package rules
