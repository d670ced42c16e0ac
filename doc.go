// Package lexgo provides an embedded, transactional full-text search index for Go.
//
// Lexgo stores typed documents in a single on-disk environment per index and
// exposes production-ready search features:
//
//   - Transactional document mutation: additions, replacements and deletions
//     are atomic, readers never observe partial state
//   - Memory-map size negotiation for platforms with limited address space
//   - Typed filter expressions (And/Or/Not, comparisons, ranges, existence)
//   - Ranked search with typo tolerance, synonyms, stop words and
//     configurable ranking rules, plus result highlighting and cropping
//   - A direct query mode that skips ranking niceties for raw filtered reads
//   - Portable dumps for backup and migration, with pluggable dump storage
//     (local, in-memory, S3, MinIO, replicated)
//
// # Quick Start
//
// Open an index and add documents:
//
//	ix, err := lexgo.Open("./movies")
//	if err != nil {
//	    panic(err)
//	}
//	defer ix.Close()
//
//	docs := []document.Document{
//	    {"id": document.Int(1), "title": document.String("The Social Network"), "year": document.Int(2010)},
//	    {"id": document.Int(2), "title": document.String("The Imitation Game"), "year": document.Int(2014)},
//	}
//	if err := ix.AddDocuments(context.Background(), docs); err != nil {
//	    panic(err)
//	}
//
// Declare filterable fields, then search:
//
//	settings, _ := ix.GetSettings()
//	settings.FilterableFields = []string{"year"}
//	_ = ix.SetSettings(context.Background(), settings)
//
//	res, _ := ix.Search(context.Background(), lexgo.SearchParams{
//	    Query:  "imitation",
//	    Filter: lexgo.GreaterThan{Field: "year", Value: "2010"},
//	})
//	for _, hit := range res.Hits {
//	    fmt.Println(hit.Document["title"].StringValue())
//	}
package lexgo
