// Package document defines the typed value model crossing the index
// boundary.
//
// A Document is a mapping from field name to a typed Value
// (null/int/float/string/bool/array/object). Values carry a natural JSON
// representation, so documents round-trip through encoding/json the way an
// application would expect: {"id":"1","year":2001}.
//
// Documents are value-copied into and out of the index boundary; no shared
// mutable references cross it.
package document
