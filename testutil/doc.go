// Package testutil provides testing utilities for lexgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides deterministic generators for document corpora and a small
// fixed movie corpus whose contents tests can assert on by name.
//
// # Random Document Generation
//
//	rng := testutil.NewRNG(seed)
//	docs := rng.Documents(1000, 6) // 1000 docs, 6-word titles
//
// # Fixed Corpus
//
//	docs := testutil.Movies()
package testutil
