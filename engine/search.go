package engine

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/lexgo/document"
)

// TermsMatchingStrategy is the policy for under-matched free-text queries.
type TermsMatchingStrategy uint8

const (
	// MatchingStrategyLast drops trailing query terms first when no
	// document matches all of them.
	MatchingStrategyLast TermsMatchingStrategy = iota
	// MatchingStrategyAll requires every query term to match.
	MatchingStrategyAll
)

// AscDesc is one sort criterion: a field reference with a direction.
type AscDesc struct {
	Field string
	Desc  bool
}

// SearchResult carries the ordered internal identifiers produced by a
// search execution.
type SearchResult struct {
	DocumentIDs []DocID

	// FacetDistribution maps each requested facet field to its value
	// counts over every match, before offset and limit; nil when no facets
	// were requested.
	FacetDistribution map[string]map[string]uint64
}

// Search is the native search primitive, bound to one read transaction
// for snapshot consistency.
type Search struct {
	rtxn *ReadTxn

	query    string
	hasQuery bool
	limit    int
	offset   int
	filter   *Condition
	sortBy   []AscDesc
	strategy TermsMatchingStrategy
	searchOn []string
	facets   []string
}

// NewSearch constructs a search over rtxn's snapshot.
func NewSearch(rtxn *ReadTxn) *Search {
	return &Search{rtxn: rtxn, limit: int(^uint32(0))}
}

// SetQuery sets the free-text query.
func (s *Search) SetQuery(q string) { s.query, s.hasQuery = q, true }

// SetLimit caps the number of returned identifiers.
func (s *Search) SetLimit(n int) { s.limit = n }

// SetOffset skips the first n ranked identifiers.
func (s *Search) SetOffset(n int) { s.offset = n }

// SetFilter restricts results to documents matching the condition tree.
func (s *Search) SetFilter(c Condition) { s.filter = &c }

// SetSort sets the sort criteria used by the sort ranking stage.
func (s *Search) SetSort(criteria []AscDesc) { s.sortBy = criteria }

// SetTermsMatchingStrategy sets the under-match policy.
func (s *Search) SetTermsMatchingStrategy(m TermsMatchingStrategy) { s.strategy = m }

// SetAttributesToSearchOn restricts term matching to the named fields for
// this execution. The effective list keeps the searchable-field order;
// listed fields outside it never match.
func (s *Search) SetAttributesToSearchOn(fields []string) { s.searchOn = fields }

// SetFacets requests a value distribution for the named fields, computed
// over every match before offset and limit. Facet fields must be declared
// filterable.
func (s *Search) SetFacets(fields []string) { s.facets = fields }

// docMatch is the per-document ranking record for a free-text query.
type docMatch struct {
	id        DocID
	matched   int // terms matched (prefix length under Last)
	typos     int
	proximity int
	attribute int
	exact     int
}

// Execute runs the search and returns ordered internal identifiers.
func (s *Search) Execute() (*SearchResult, error) {
	t := s.rtxn

	for _, c := range s.sortBy {
		if _, ok := t.state.settings.sortableFields[c.Field]; !ok {
			return nil, &InvalidSortError{Field: c.Field}
		}
	}
	for _, f := range s.facets {
		if _, ok := t.state.settings.filterableFields[f]; !ok {
			return nil, &InvalidFilterError{Field: f}
		}
	}

	var candidates *roaring.Bitmap
	if s.filter != nil {
		bm, err := t.evaluate(*s.filter)
		if err != nil {
			return nil, err
		}
		candidates = bm
	} else {
		candidates = t.state.live.Clone()
	}

	docs := make(map[DocID]document.Document, candidates.GetCardinality())
	ids := make([]DocID, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		id := DocID(it.Next())
		doc, err := t.state.decodeRecord(t.env.codec, t.state.docs[id])
		if err != nil {
			return nil, err
		}
		docs[id] = doc
		ids = append(ids, id)
	}

	terms := s.queryTerms()
	fields := s.searchFields()
	var ordered []DocID
	if len(terms) > 0 {
		matches := make([]docMatch, 0, len(ids))
		for _, id := range ids {
			m, ok := s.matchDocument(id, docs[id], terms, fields)
			if !ok {
				continue
			}
			matches = append(matches, m)
		}
		s.rank(matches, docs)
		ordered = make([]DocID, len(matches))
		for i, m := range matches {
			ordered[i] = m.id
		}
	} else {
		ordered = ids
		if len(s.sortBy) > 0 {
			s.sortOnly(ordered, docs)
		}
	}

	facets := s.facetDistribution(ordered, docs)

	if s.offset >= len(ordered) {
		return &SearchResult{DocumentIDs: nil, FacetDistribution: facets}, nil
	}
	ordered = ordered[s.offset:]
	if s.limit < len(ordered) {
		ordered = ordered[:s.limit]
	}
	return &SearchResult{DocumentIDs: ordered, FacetDistribution: facets}, nil
}

// searchFields resolves the effective field list for term matching: the
// searchable-field setting (or the dictionary under the "all fields"
// sentinel), optionally restricted by SetAttributesToSearchOn.
func (s *Search) searchFields() []string {
	t := s.rtxn

	fields := t.state.settings.searchableFields
	if fields == nil {
		// "All fields" sentinel: dictionary order keeps attribute ranking
		// deterministic.
		fields = t.state.fields
	}
	if s.searchOn == nil {
		return fields
	}
	allowed := make(map[string]struct{}, len(s.searchOn))
	for _, f := range s.searchOn {
		allowed[f] = struct{}{}
	}
	restricted := make([]string, 0, len(s.searchOn))
	for _, f := range fields {
		if _, ok := allowed[f]; ok {
			restricted = append(restricted, f)
		}
	}
	return restricted
}

// facetDistribution tallies facet-field values over the matched ids.
func (s *Search) facetDistribution(ids []DocID, docs map[DocID]document.Document) map[string]map[string]uint64 {
	if len(s.facets) == 0 {
		return nil
	}
	dist := make(map[string]map[string]uint64, len(s.facets))
	for _, f := range s.facets {
		dist[f] = make(map[string]uint64)
	}
	for _, id := range ids {
		doc := docs[id]
		for _, f := range s.facets {
			v, ok := doc[f]
			if !ok {
				continue
			}
			for _, sv := range facetStrings(v) {
				dist[f][sv]++
			}
		}
	}
	return dist
}

// facetStrings renders a field value into its countable facet forms:
// strings as-is, numbers in decimal, booleans as "true"/"false", arrays
// element-wise. Null and nested objects produce nothing.
func facetStrings(v document.Value) []string {
	switch v.Kind {
	case document.KindString:
		return []string{v.StringValue()}
	case document.KindInt, document.KindFloat:
		if s, ok := v.ExternalID(); ok {
			return []string{s}
		}
	case document.KindBool:
		if b, ok := v.AsBool(); ok {
			if b {
				return []string{"true"}
			}
			return []string{"false"}
		}
	case document.KindArray:
		a, _ := v.AsArray()
		var out []string
		for _, el := range a {
			out = append(out, facetStrings(el)...)
		}
		return out
	}
	return nil
}

// queryTerms tokenizes the query and strips stop words.
func (s *Search) queryTerms() []string {
	if !s.hasQuery || strings.TrimSpace(s.query) == "" {
		return nil
	}
	stop := s.rtxn.state.settings.stopWords
	var terms []string
	for _, tok := range tokenize(s.query) {
		if _, isStop := stop[tok]; isStop {
			continue
		}
		terms = append(terms, tok)
	}
	return terms
}

// matchDocument evaluates every query term against the document's
// searchable text and reports whether the document qualifies under the
// matching strategy.
func (s *Search) matchDocument(id DocID, doc document.Document, terms, fields []string) (docMatch, bool) {
	m := docMatch{id: id, attribute: len(fields)}
	prevPos := -1
	allMatchedSoFar := true
	for _, term := range terms {
		hit, ok := s.matchTerm(doc, fields, term)
		if !ok {
			allMatchedSoFar = false
			if s.strategy == MatchingStrategyAll {
				return docMatch{}, false
			}
			// Last: trailing terms are droppable, but only a matched
			// prefix counts toward the words rank.
			continue
		}
		if !allMatchedSoFar && s.strategy == MatchingStrategyLast {
			// A later term matching after a gap does not extend the prefix.
			continue
		}
		m.matched++
		m.typos += hit.typos
		if hit.exact {
			m.exact++
		}
		if hit.attribute < m.attribute {
			m.attribute = hit.attribute
		}
		if prevPos >= 0 {
			d := hit.position - prevPos
			if d < 0 {
				d = -d
			}
			m.proximity += d
		}
		prevPos = hit.position
	}

	if m.matched == 0 {
		return docMatch{}, false
	}
	return m, true
}

// termHit is the best match of one query term within a document.
type termHit struct {
	typos     int
	position  int
	attribute int
	exact     bool
}

func (s *Search) matchTerm(doc document.Document, fields []string, term string) (termHit, bool) {
	t := s.rtxn
	st := t.state.settings

	best := termHit{}
	found := false

	equivalents := st.synonyms[term]

	posBase := 0
	for rank, field := range fields {
		v, ok := doc[field]
		if !ok {
			continue
		}
		_, fieldExempt := st.exactAttributes[field]
		maxTypos := t.allowedTypos(term, fieldExempt)

		for _, text := range fieldText(v) {
			for i, tok := range tokenize(text) {
				hit, ok := matchToken(tok, term, equivalents, maxTypos)
				if !ok {
					continue
				}
				hit.position = posBase + i
				hit.attribute = rank
				if !found || betterHit(hit, best) {
					best = hit
					found = true
				}
			}
			posBase += 1000 // separate texts so proximity never spans them
		}
		posBase += 1000
	}
	return best, found
}

func matchToken(tok, term string, equivalents []string, maxTypos int) (termHit, bool) {
	if tok == term {
		return termHit{exact: true}, true
	}
	for _, syn := range equivalents {
		if strings.EqualFold(tok, syn) {
			return termHit{}, true
		}
	}
	if maxTypos > 0 {
		if d := levenshtein(tok, term, maxTypos); d <= maxTypos {
			return termHit{typos: d}, true
		}
	}
	return termHit{}, false
}

func betterHit(a, b termHit) bool {
	if a.exact != b.exact {
		return a.exact
	}
	if a.typos != b.typos {
		return a.typos < b.typos
	}
	return a.attribute < b.attribute
}

// rank orders matches by the configured ranking-rule sequence, breaking
// remaining ties by internal id.
func (s *Search) rank(matches []docMatch, docs map[DocID]document.Document) {
	criteria := s.rtxn.state.settings.criteria
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		for _, c := range criteria {
			switch c {
			case CriterionWords:
				if a.matched != b.matched {
					return a.matched > b.matched
				}
			case CriterionTypo:
				if a.typos != b.typos {
					return a.typos < b.typos
				}
			case CriterionProximity:
				if a.proximity != b.proximity {
					return a.proximity < b.proximity
				}
			case CriterionAttribute:
				if a.attribute != b.attribute {
					return a.attribute < b.attribute
				}
			case CriterionSort:
				if cmp := s.compareSort(docs[a.id], docs[b.id]); cmp != 0 {
					return cmp < 0
				}
			case CriterionExactness:
				if a.exact != b.exact {
					return a.exact > b.exact
				}
			}
		}
		return a.id < b.id
	})
}

// sortOnly orders ids by the sort criteria alone (query-less search).
func (s *Search) sortOnly(ids []DocID, docs map[DocID]document.Document) {
	sort.SliceStable(ids, func(i, j int) bool {
		if cmp := s.compareSort(docs[ids[i]], docs[ids[j]]); cmp != 0 {
			return cmp < 0
		}
		return ids[i] < ids[j]
	})
}

// compareSort compares two documents under the search's sort criteria.
// Numbers order numerically, strings case-insensitively; documents missing
// the field order last regardless of direction.
func (s *Search) compareSort(a, b document.Document) int {
	for _, c := range s.sortBy {
		av, aok := a[c.Field]
		bv, bok := b[c.Field]
		if !aok || !bok {
			if aok {
				return -1
			}
			if bok {
				return 1
			}
			continue
		}
		cmp := compareValues(av, bv)
		if cmp == 0 {
			continue
		}
		if c.Desc {
			return -cmp
		}
		return cmp
	}
	return 0
}

func compareValues(a, b document.Value) int {
	if an, ok := a.Number(); ok {
		if bn, ok := b.Number(); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
		return -1 // numbers order before strings
	}
	if _, ok := b.Number(); ok {
		return 1
	}
	as, aok := a.AsString()
	bs, bok := b.AsString()
	if aok && bok {
		return strings.Compare(strings.ToLower(as), strings.ToLower(bs))
	}
	return 0
}
