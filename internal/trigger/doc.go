// Package trigger turns tracked events into in-app message displays: it
// caches the server-authored campaign list, matches events against each
// campaign's trigger condition, and gates displays through frequency caps,
// hide-until suppression, and a single-flight modal lock.
//
// The package owns no rendering. A host registers a Presenter; the service
// hands it campaigns to draw and is told via Hide/SetSurfaceReady when the
// surface state changes.
package trigger
