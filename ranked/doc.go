// Package ranked implements the full-featured query pipeline on top of the
// engine's native search primitive: default budgets, terms-matching
// strategy, and per-hit formatting (highlighting and cropping).
//
// The direct query path in the root package bypasses this pipeline and
// returns raw documents; ranked exists for callers that want
// search-as-you-type ergonomics out of the box.
package ranked
