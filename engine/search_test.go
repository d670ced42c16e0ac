package engine

import (
	"testing"

	"github.com/hupe1980/lexgo/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchTitles(t *testing.T, env *Environment, configure func(*Search)) []string {
	t.Helper()

	rtxn, err := env.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()

	s := NewSearch(rtxn)
	configure(s)
	res, err := s.Execute()
	require.NoError(t, err)

	titles := make([]string, 0, len(res.DocumentIDs))
	for _, id := range res.DocumentIDs {
		doc, err := rtxn.Document(id)
		require.NoError(t, err)
		titles = append(titles, doc["title"].StringValue())
	}
	return titles
}

func TestSearchRanking(t *testing.T) {
	t.Run("WordsRankFirst", func(t *testing.T) {
		env := newTestEnv(t)
		addTestDocuments(t, env,
			document.Document{"id": document.Int(1), "title": document.String("social game")},
			document.Document{"id": document.Int(2), "title": document.String("social network")},
		)

		titles := searchTitles(t, env, func(s *Search) {
			s.SetQuery("social network")
		})
		require.Len(t, titles, 2)
		assert.Equal(t, "social network", titles[0], "two matched terms beat one")
	})

	t.Run("FewerTyposRankHigher", func(t *testing.T) {
		env := newTestEnv(t)
		addTestDocuments(t, env,
			document.Document{"id": document.Int(1), "title": document.String("imitating")},
			document.Document{"id": document.Int(2), "title": document.String("imitation")},
		)

		titles := searchTitles(t, env, func(s *Search) {
			s.SetQuery("imitation")
		})
		require.Len(t, titles, 2)
		assert.Equal(t, "imitation", titles[0])
	})

	t.Run("EarlierAttributeRanksHigher", func(t *testing.T) {
		env := newTestEnv(t)
		addTestDocuments(t, env,
			document.Document{
				"id":       document.Int(1),
				"title":    document.String("something else"),
				"overview": document.String("an inception of sorts"),
			},
			document.Document{
				"id":       document.Int(2),
				"title":    document.String("inception"),
				"overview": document.String("dreams within dreams"),
			},
		)

		wtxn, err := env.WriteTxn()
		require.NoError(t, err)
		sb := NewSettings(wtxn)
		sb.SetSearchableFields([]string{"title", "overview"})
		require.NoError(t, sb.Execute(nil, nil))
		require.NoError(t, wtxn.Commit())

		rtxn, err := env.ReadTxn()
		require.NoError(t, err)
		defer rtxn.Close()

		s := NewSearch(rtxn)
		s.SetQuery("inception")
		res, err := s.Execute()
		require.NoError(t, err)
		require.Len(t, res.DocumentIDs, 2)

		doc, err := rtxn.Document(res.DocumentIDs[0])
		require.NoError(t, err)
		assert.Equal(t, "inception", doc["title"].StringValue())
	})

	t.Run("ExactBeatsSynonym", func(t *testing.T) {
		env := newTestEnv(t)
		addTestDocuments(t, env,
			document.Document{"id": document.Int(1), "title": document.String("movie night")},
			document.Document{"id": document.Int(2), "title": document.String("film night")},
		)

		wtxn, err := env.WriteTxn()
		require.NoError(t, err)
		sb := NewSettings(wtxn)
		sb.SetSynonyms(map[string][]string{"film": {"movie"}})
		require.NoError(t, sb.Execute(nil, nil))
		require.NoError(t, wtxn.Commit())

		titles := searchTitles(t, env, func(s *Search) {
			s.SetQuery("film")
		})
		require.Len(t, titles, 2)
		assert.Equal(t, "film night", titles[0])
	})

	t.Run("CustomCriteriaOrder", func(t *testing.T) {
		env := newTestEnv(t)
		addTestDocuments(t, env,
			document.Document{"id": document.Int(1), "title": document.String("imitations"), "year": document.Int(1999)},
			document.Document{"id": document.Int(2), "title": document.String("imitation"), "year": document.Int(2001)},
		)

		wtxn, err := env.WriteTxn()
		require.NoError(t, err)
		sb := NewSettings(wtxn)
		sb.SetSortableFields(map[string]struct{}{"year": {}})
		// Sort before typo: the older document wins despite its typo.
		sb.SetCriteria([]Criterion{CriterionWords, CriterionSort, CriterionTypo})
		require.NoError(t, sb.Execute(nil, nil))
		require.NoError(t, wtxn.Commit())

		titles := searchTitles(t, env, func(s *Search) {
			s.SetQuery("imitation")
			s.SetSort([]AscDesc{{Field: "year"}})
		})
		require.Len(t, titles, 2)
		assert.Equal(t, "imitations", titles[0], "year 1999 sorts before 2001")
	})
}

func TestSearchMatchingStrategy(t *testing.T) {
	env := newTestEnv(t)
	addTestDocuments(t, env,
		document.Document{"id": document.Int(1), "title": document.String("the imitation game")},
		document.Document{"id": document.Int(2), "title": document.String("inception")},
	)

	t.Run("LastDropsTrailingTerms", func(t *testing.T) {
		titles := searchTitles(t, env, func(s *Search) {
			s.SetQuery("imitation xyzzy")
		})
		require.Len(t, titles, 1)
		assert.Equal(t, "the imitation game", titles[0])
	})

	t.Run("LastRequiresMatchedPrefix", func(t *testing.T) {
		// The first term matches nothing, so a later match cannot revive
		// the document.
		titles := searchTitles(t, env, func(s *Search) {
			s.SetQuery("xyzzy imitation")
		})
		assert.Empty(t, titles)
	})

	t.Run("AllRequiresEveryTerm", func(t *testing.T) {
		titles := searchTitles(t, env, func(s *Search) {
			s.SetQuery("imitation xyzzy")
			s.SetTermsMatchingStrategy(MatchingStrategyAll)
		})
		assert.Empty(t, titles)
	})
}

func TestSearchSortSemantics(t *testing.T) {
	env := newTestEnv(t)
	addTestDocuments(t, env,
		document.Document{"id": document.Int(1), "title": document.String("b"), "year": document.Int(2010)},
		document.Document{"id": document.Int(2), "title": document.String("A"), "year": document.Int(2010)},
		document.Document{"id": document.Int(3), "title": document.String("c")},
	)

	wtxn, err := env.WriteTxn()
	require.NoError(t, err)
	sb := NewSettings(wtxn)
	sb.SetSortableFields(map[string]struct{}{"year": {}, "title": {}})
	require.NoError(t, sb.Execute(nil, nil))
	require.NoError(t, wtxn.Commit())

	t.Run("MissingFieldOrdersLast", func(t *testing.T) {
		titles := searchTitles(t, env, func(s *Search) {
			s.SetSort([]AscDesc{{Field: "year", Desc: true}})
		})
		require.Len(t, titles, 3)
		assert.Equal(t, "c", titles[2], "no year means last, even descending")
	})

	t.Run("StringsCompareCaseInsensitively", func(t *testing.T) {
		titles := searchTitles(t, env, func(s *Search) {
			s.SetSort([]AscDesc{{Field: "title"}})
		})
		assert.Equal(t, []string{"A", "b", "c"}, titles)
	})

	t.Run("UnknownSortField", func(t *testing.T) {
		rtxn, err := env.ReadTxn()
		require.NoError(t, err)
		defer rtxn.Close()

		s := NewSearch(rtxn)
		s.SetSort([]AscDesc{{Field: "rating"}})
		_, err = s.Execute()
		require.Error(t, err)

		var se *InvalidSortError
		assert.ErrorAs(t, err, &se)
	})
}

func TestSearchAttributesToSearchOn(t *testing.T) {
	env := newTestEnv(t)
	addTestDocuments(t, env,
		document.Document{
			"id":       document.Int(1),
			"title":    document.String("inception"),
			"overview": document.String("dreams within dreams"),
		},
		document.Document{
			"id":       document.Int(2),
			"title":    document.String("something else"),
			"overview": document.String("an inception of sorts"),
		},
	)

	t.Run("RestrictsMatching", func(t *testing.T) {
		titles := searchTitles(t, env, func(s *Search) {
			s.SetQuery("inception")
			s.SetAttributesToSearchOn([]string{"title"})
		})
		assert.Equal(t, []string{"inception"}, titles)
	})

	t.Run("FieldsOutsideSearchableNeverMatch", func(t *testing.T) {
		wtxn, err := env.WriteTxn()
		require.NoError(t, err)
		sb := NewSettings(wtxn)
		sb.SetSearchableFields([]string{"title"})
		require.NoError(t, sb.Execute(nil, nil))
		require.NoError(t, wtxn.Commit())

		titles := searchTitles(t, env, func(s *Search) {
			s.SetQuery("inception")
			s.SetAttributesToSearchOn([]string{"overview"})
		})
		assert.Empty(t, titles)
	})
}

func TestSearchFacets(t *testing.T) {
	env := newTestEnv(t)
	addTestDocuments(t, env,
		document.Document{
			"id":     document.Int(1),
			"title":  document.String("alpha"),
			"genre":  document.String("drama"),
			"year":   document.Int(2010),
			"rented": document.Bool(true),
		},
		document.Document{
			"id":     document.Int(2),
			"title":  document.String("beta"),
			"genre":  document.String("drama"),
			"year":   document.Int(2014),
			"rented": document.Bool(false),
		},
		document.Document{
			"id":    document.Int(3),
			"title": document.String("gamma"),
			"genre": document.String("thriller"),
			"year":  document.Int(2010),
		},
	)

	wtxn, err := env.WriteTxn()
	require.NoError(t, err)
	sb := NewSettings(wtxn)
	sb.SetFilterableFields(map[string]struct{}{
		"genre": {}, "year": {}, "rented": {},
	})
	require.NoError(t, sb.Execute(nil, nil))
	require.NoError(t, wtxn.Commit())

	rtxn, err := env.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()

	t.Run("CountsEveryMatchBeforePagination", func(t *testing.T) {
		s := NewSearch(rtxn)
		s.SetFacets([]string{"genre", "year", "rented"})
		s.SetLimit(1)

		res, err := s.Execute()
		require.NoError(t, err)
		require.Len(t, res.DocumentIDs, 1)
		assert.Equal(t, map[string]map[string]uint64{
			"genre":  {"drama": 2, "thriller": 1},
			"year":   {"2010": 2, "2014": 1},
			"rented": {"true": 1, "false": 1},
		}, res.FacetDistribution)
	})

	t.Run("FilterNarrowsTheDistribution", func(t *testing.T) {
		s := NewSearch(rtxn)
		s.SetFacets([]string{"genre"})
		s.SetFilter(Condition{Kind: ConditionLeaf, Field: "year", Op: OpEqual, Values: []string{"2010"}})

		res, err := s.Execute()
		require.NoError(t, err)
		assert.Equal(t, map[string]map[string]uint64{
			"genre": {"drama": 1, "thriller": 1},
		}, res.FacetDistribution)
	})

	t.Run("NonFilterableFacetRejected", func(t *testing.T) {
		s := NewSearch(rtxn)
		s.SetFacets([]string{"title"})

		_, err := s.Execute()
		require.Error(t, err)

		var fe *InvalidFilterError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "title", fe.Field)
	})
}
