package ranked

import (
	"time"

	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/engine"
)

// Pipeline defaults. A query that sets none of the knobs gets a bounded
// result set with conventional highlight markup.
const (
	DefaultLimit            = 10000
	DefaultCropLength       = 10
	DefaultHighlightPreTag  = "<em>"
	DefaultHighlightPostTag = "</em>"
	DefaultCropMarker       = "..."
)

// Features toggles optional per-hit payloads. Every flag defaults to off.
type Features struct {
	// ShowMatchesPosition includes the matched term positions per hit.
	ShowMatchesPosition bool
	// ShowRankingScore includes a normalized ranking score per hit.
	ShowRankingScore bool
}

// Request is one ranked query. Zero values select the pipeline defaults.
type Request struct {
	Query string

	// Limit caps the hit count; nil selects DefaultLimit.
	Limit  *uint32
	Offset uint32

	Filter           *engine.Condition
	Sort             []engine.AscDesc
	MatchingStrategy engine.TermsMatchingStrategy

	// AttributesToRetrieve restricts the fields of Document and Formatted
	// in each hit; nil keeps every field.
	AttributesToRetrieve []string
	// AttributesToHighlight restricts highlight markup to the named
	// fields; nil highlights every field.
	AttributesToHighlight []string
	// AttributesToCrop restricts cropping to the named fields; nil crops
	// every field.
	AttributesToCrop []string
	// AttributesToSearchOn restricts term matching to the named fields for
	// this query; nil uses the searchable-fields setting.
	AttributesToSearchOn []string

	// Facets requests a value distribution per named field, computed over
	// every match before pagination. Facet fields must be filterable.
	Facets []string

	// CropLength is the crop window in words; 0 selects DefaultCropLength.
	CropLength uint32
	// HighlightPreTag/HighlightPostTag wrap matched terms in formatted
	// output; empty strings select the defaults.
	HighlightPreTag  string
	HighlightPostTag string
	// CropMarker is prepended/appended to cropped text; empty selects the
	// default.
	CropMarker string

	Features Features
}

// MatchPosition locates one matched term inside a formatted field.
type MatchPosition struct {
	Field string
	Start int
	Len   int
}

// Hit is one ranked result: the stored document plus its formatted
// rendition with highlight markup and cropping applied.
type Hit struct {
	Document  document.Document
	Formatted document.Document

	// MatchesPosition is populated when Features.ShowMatchesPosition is set.
	MatchesPosition []MatchPosition
	// RankingScore is populated when Features.ShowRankingScore is set.
	RankingScore float64
}

// Result is the outcome of one ranked query.
type Result struct {
	Hits               []Hit
	Query              string
	ProcessingTime     time.Duration
	Limit              uint32
	Offset             uint32
	EstimatedTotalHits uint64

	// FacetDistribution maps each requested facet field to its value
	// counts; nil when no facets were requested.
	FacetDistribution map[string]map[string]uint64
}

// Execute runs the ranked pipeline against one read transaction. The
// transaction stays open for the whole execution so ranking and document
// reconstruction observe the same snapshot.
func Execute(rtxn *engine.ReadTxn, req Request) (*Result, error) {
	start := time.Now()

	limit := uint32(DefaultLimit)
	if req.Limit != nil {
		limit = *req.Limit
	}

	s := engine.NewSearch(rtxn)
	if req.Query != "" {
		s.SetQuery(req.Query)
	}
	s.SetLimit(int(limit))
	s.SetOffset(int(req.Offset))
	if req.Filter != nil {
		s.SetFilter(*req.Filter)
	}
	if len(req.Sort) > 0 {
		s.SetSort(req.Sort)
	}
	s.SetTermsMatchingStrategy(req.MatchingStrategy)
	if req.AttributesToSearchOn != nil {
		s.SetAttributesToSearchOn(req.AttributesToSearchOn)
	}
	if len(req.Facets) > 0 {
		s.SetFacets(req.Facets)
	}

	res, err := s.Execute()
	if err != nil {
		return nil, err
	}

	f := newFormatter(req)
	retrieve := fieldSet(req.AttributesToRetrieve)
	hits := make([]Hit, 0, len(res.DocumentIDs))
	for _, id := range res.DocumentIDs {
		doc, err := rtxn.Document(id)
		if err != nil {
			return nil, err
		}
		hit := Hit{
			Document:  restrictFields(doc, retrieve),
			Formatted: restrictFields(f.format(doc), retrieve),
		}
		if req.Features.ShowMatchesPosition {
			hit.MatchesPosition = f.positions(doc)
		}
		hits = append(hits, hit)
	}

	if req.Features.ShowRankingScore {
		// Rank position is the only signal the engine exposes; normalize it
		// into (0, 1] with the best hit at 1.
		for i := range hits {
			hits[i].RankingScore = 1 - float64(i)/float64(len(hits))
		}
	}

	return &Result{
		Hits:               hits,
		Query:              req.Query,
		ProcessingTime:     time.Since(start),
		Limit:              limit,
		Offset:             req.Offset,
		EstimatedTotalHits: uint64(len(hits)) + uint64(req.Offset),
		FacetDistribution:  res.FacetDistribution,
	}, nil
}

// restrictFields drops every field outside keep; a nil keep set passes the
// document through unchanged.
func restrictFields(doc document.Document, keep map[string]struct{}) document.Document {
	if keep == nil {
		return doc
	}
	out := make(document.Document, len(keep))
	for name, v := range doc {
		if _, ok := keep[name]; ok {
			out[name] = v
		}
	}
	return out
}
