package lexgo

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/engine"
	"github.com/hupe1980/lexgo/ranked"
)

// MatchingStrategy is the policy for queries where not every term matches.
type MatchingStrategy = engine.TermsMatchingStrategy

const (
	// MatchingStrategyLast drops trailing query terms first. This is the
	// default.
	MatchingStrategyLast = engine.MatchingStrategyLast
	// MatchingStrategyAll requires every query term to match.
	MatchingStrategyAll = engine.MatchingStrategyAll
)

// SortCriterion is one sort directive: a field with a direction.
type SortCriterion struct {
	Field string
	Desc  bool
}

// SearchParams describes one query in either mode.
type SearchParams struct {
	// Query is the free-text query; empty matches everything.
	Query string

	// Limit caps the number of hits. nil selects the mode default: the
	// ranked pipeline budget for Search, unbounded for SearchDocuments.
	Limit *uint32

	// Offset skips the first n hits.
	Offset uint32

	// Filter restricts results; nil means no restriction. Referenced
	// fields must be declared filterable.
	Filter Filter

	// Sort orders results under the "sort" ranking rule. Referenced fields
	// must be declared sortable.
	Sort []SortCriterion

	// MatchingStrategy defaults to MatchingStrategyLast.
	MatchingStrategy MatchingStrategy

	// AttributesToRetrieve restricts the fields of Document and Formatted
	// in each Search hit; nil keeps every field. Ignored by
	// SearchDocuments, which always returns whole documents.
	AttributesToRetrieve []string

	// AttributesToHighlight restricts highlight markup to the named
	// fields; nil highlights every field.
	AttributesToHighlight []string

	// AttributesToCrop restricts cropping to the named fields; nil crops
	// every field.
	AttributesToCrop []string

	// AttributesToSearchOn restricts term matching to the named fields for
	// this query; nil uses the searchable-fields setting. Fields outside
	// the searchable list never match.
	AttributesToSearchOn []string

	// Facets requests a value distribution per named field on the Search
	// result, computed over every match before pagination. Facet fields
	// must be declared filterable.
	Facets []string

	// CropLength is the crop window in words; 0 selects the pipeline
	// default.
	CropLength uint32

	// CropMarker marks cropped text; empty selects the pipeline default.
	CropMarker string

	// HighlightPreTag and HighlightPostTag wrap matched terms in the
	// formatted rendition; empty strings select the pipeline defaults.
	HighlightPreTag  string
	HighlightPostTag string

	// ShowMatchesPosition includes matched term positions per Search hit.
	ShowMatchesPosition bool

	// ShowRankingScore includes a normalized ranking score per Search hit.
	ShowRankingScore bool
}

// SearchHit is one ranked result.
type SearchHit = ranked.Hit

// SearchResult is the outcome of a ranked search.
type SearchResult struct {
	Hits               []SearchHit
	Query              string
	ProcessingTime     time.Duration
	EstimatedTotalHits uint64

	// FacetDistribution maps each requested facet field to its value
	// counts; nil when no facets were requested.
	FacetDistribution map[string]map[string]uint64
}

// Search runs the full ranked pipeline: stop words, typo tolerance,
// synonyms, ranking rules, and per-hit formatting with highlight markup.
func (ix *Index) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	start := time.Now()
	res, err := ix.search(p)
	hits := 0
	if res != nil {
		hits = len(res.Hits)
	}
	ix.opts.metricsCollector.RecordSearch(hits, time.Since(start), err)
	ix.opts.logger.LogSearch(ctx, p.Query, hits, time.Since(start), err)
	return res, err
}

func (ix *Index) search(p SearchParams) (*SearchResult, error) {
	rtxn, err := ix.env.ReadTxn()
	if err != nil {
		return nil, fmt.Errorf("lexgo: %w", translateError(err))
	}
	defer rtxn.Close()

	req := ranked.Request{
		Query:                 p.Query,
		Limit:                 p.Limit,
		Offset:                p.Offset,
		Sort:                  toAscDesc(p.Sort),
		MatchingStrategy:      p.MatchingStrategy,
		AttributesToRetrieve:  p.AttributesToRetrieve,
		AttributesToHighlight: p.AttributesToHighlight,
		AttributesToCrop:      p.AttributesToCrop,
		AttributesToSearchOn:  p.AttributesToSearchOn,
		Facets:                p.Facets,
		CropLength:            p.CropLength,
		CropMarker:            p.CropMarker,
		HighlightPreTag:       p.HighlightPreTag,
		HighlightPostTag:      p.HighlightPostTag,
		Features: ranked.Features{
			ShowMatchesPosition: p.ShowMatchesPosition,
			ShowRankingScore:    p.ShowRankingScore,
		},
	}
	if p.Filter != nil {
		cond := compileFilter(p.Filter)
		req.Filter = &cond
	}

	res, err := ranked.Execute(rtxn, req)
	if err != nil {
		return nil, fmt.Errorf("lexgo: %w", translateError(err))
	}
	return &SearchResult{
		Hits:               res.Hits,
		Query:              res.Query,
		ProcessingTime:     res.ProcessingTime,
		EstimatedTotalHits: res.EstimatedTotalHits,
		FacetDistribution:  res.FacetDistribution,
	}, nil
}

// SearchDocuments runs the direct query mode: same matching and filtering
// as Search, but results are the stored documents without formatting, and
// the default limit is unbounded. The identifier resolution and document
// reconstruction run inside one read transaction, so results are
// snapshot-consistent.
func (ix *Index) SearchDocuments(ctx context.Context, p SearchParams) ([]document.Document, error) {
	start := time.Now()
	docs, err := ix.searchDocuments(p)
	ix.opts.metricsCollector.RecordSearch(len(docs), time.Since(start), err)
	ix.opts.logger.LogSearch(ctx, p.Query, len(docs), time.Since(start), err)
	return docs, err
}

func (ix *Index) searchDocuments(p SearchParams) ([]document.Document, error) {
	rtxn, err := ix.env.ReadTxn()
	if err != nil {
		return nil, fmt.Errorf("lexgo: %w", translateError(err))
	}
	defer rtxn.Close()

	s := engine.NewSearch(rtxn)
	if p.Query != "" {
		s.SetQuery(p.Query)
	}
	if p.Limit != nil {
		s.SetLimit(int(*p.Limit))
	}
	s.SetOffset(int(p.Offset))
	if p.Filter != nil {
		s.SetFilter(compileFilter(p.Filter))
	}
	if len(p.Sort) > 0 {
		s.SetSort(toAscDesc(p.Sort))
	}
	s.SetTermsMatchingStrategy(p.MatchingStrategy)
	if p.AttributesToSearchOn != nil {
		s.SetAttributesToSearchOn(p.AttributesToSearchOn)
	}

	res, err := s.Execute()
	if err != nil {
		return nil, fmt.Errorf("lexgo: %w", translateError(err))
	}

	docs, err := rtxn.Documents(res.DocumentIDs)
	if err != nil {
		return nil, fmt.Errorf("lexgo: %w", translateError(err))
	}
	return docs, nil
}

func toAscDesc(criteria []SortCriterion) []engine.AscDesc {
	if len(criteria) == 0 {
		return nil
	}
	out := make([]engine.AscDesc, len(criteria))
	for i, c := range criteria {
		out[i] = engine.AscDesc{Field: c.Field, Desc: c.Desc}
	}
	return out
}
