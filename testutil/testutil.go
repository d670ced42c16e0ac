package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/hupe1980/lexgo/document"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// vocabulary is a small fixed word list; generated text stays stable
// across runs for a given seed.
var vocabulary = []string{
	"amber", "beacon", "cobalt", "drift", "ember", "falcon", "glacier",
	"harbor", "indigo", "juniper", "kestrel", "lantern", "meadow",
	"nimbus", "orchard", "pinnacle", "quartz", "river", "saffron",
	"timber", "umber", "velvet", "willow", "zenith",
}

// Words returns n pseudo-random vocabulary words joined by spaces.
func (r *RNG) Words(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	words := make([]string, n)
	for i := range words {
		words[i] = vocabulary[r.rand.Intn(len(vocabulary))]
	}
	return strings.Join(words, " ")
}

// Documents generates n documents with an "id" primary key, a "title" of
// titleWords random words and a numeric "rank" field. Useful as bulk
// ingest input.
func (r *RNG) Documents(n, titleWords int) []document.Document {
	docs := make([]document.Document, n)
	for i := range docs {
		docs[i] = document.Document{
			"id":    document.Int(int64(i + 1)),
			"title": document.String(r.Words(titleWords)),
			"rank":  document.Int(int64(r.Intn(100))),
		}
	}
	return docs
}

// Movies returns a small fixed corpus used across tests: stable titles,
// years and genres so assertions can name exact results.
func Movies() []document.Document {
	return []document.Document{
		{
			"id":     document.Int(1),
			"title":  document.String("The Social Network"),
			"year":   document.Int(2010),
			"genres": document.Array(document.String("drama")),
		},
		{
			"id":     document.Int(2),
			"title":  document.String("The Imitation Game"),
			"year":   document.Int(2014),
			"genres": document.Array(document.String("drama"), document.String("thriller")),
		},
		{
			"id":     document.Int(3),
			"title":  document.String("Inception"),
			"year":   document.Int(2010),
			"genres": document.Array(document.String("action"), document.String("sci-fi")),
		},
	}
}

// ExternalID renders a positional id the way the movie corpus stores it.
func ExternalID(i int) string {
	return fmt.Sprintf("%d", i)
}
