package lexgo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hupe1980/lexgo/engine"
)

// Settings is the full, caller-visible configuration of an index. Every
// facet is always present in a GetSettings result; SetSettings applies the
// whole struct, so a read-modify-write cycle is the intended usage.
type Settings struct {
	// PrimaryKey designates the document-identifier field. nil clears the
	// designation so the engine infers one from the next ingested batch;
	// GetSettings reports the established key whether it was designated or
	// inferred.
	PrimaryKey *string

	// SearchableFields is the ordered list of fields considered by the
	// free-text stage. nil means "all fields"; an empty non-nil slice means
	// "no fields". The two are distinct.
	SearchableFields []string

	// FilterableFields lists the fields usable in filter expressions.
	FilterableFields []string

	// SortableFields lists the fields usable as sort criteria.
	SortableFields []string

	// RankingRules is the ordered ranking-rule pipeline. Valid names are
	// "words", "typo", "proximity", "attribute", "sort" and "exactness";
	// anything else is rejected before commit.
	RankingRules []string

	// StopWords are dropped from queries before matching.
	StopWords []string

	// Synonyms maps a word to the words treated as equivalent during
	// matching.
	Synonyms map[string][]string

	// TyposEnabled toggles typo tolerance globally.
	TyposEnabled bool

	// MinWordSizeForOneTypo is the minimum query-term length at which one
	// typo is tolerated.
	MinWordSizeForOneTypo uint8

	// MinWordSizeForTwoTypos is the minimum query-term length at which two
	// typos are tolerated.
	MinWordSizeForTwoTypos uint8

	// DisallowTyposOnWords lists words always matched exactly.
	DisallowTyposOnWords []string

	// DisallowTyposOnFields lists fields whose content is always matched
	// exactly.
	DisallowTyposOnFields []string
}

// DefaultSettings returns the settings of a freshly created index.
func DefaultSettings() Settings {
	var rules []string
	for _, c := range engine.DefaultCriteria() {
		rules = append(rules, c.String())
	}
	return Settings{
		SearchableFields:       nil,
		FilterableFields:       []string{},
		SortableFields:         []string{},
		RankingRules:           rules,
		StopWords:              []string{},
		Synonyms:               map[string][]string{},
		TyposEnabled:           true,
		MinWordSizeForOneTypo:  5,
		MinWordSizeForTwoTypos: 9,
		DisallowTyposOnWords:   []string{},
		DisallowTyposOnFields:  []string{},
	}
}

// GetSettings returns the committed settings. Set-valued facets come back
// sorted so results are deterministic.
func (ix *Index) GetSettings() (Settings, error) {
	rtxn, err := ix.env.ReadTxn()
	if err != nil {
		return Settings{}, fmt.Errorf("lexgo: %w", translateError(err))
	}
	defer rtxn.Close()
	return settingsFromTxn(rtxn), nil
}

// settingsFromTxn reads the full settings struct under an already-open
// read transaction, so callers can pair it with other reads of the same
// snapshot.
func settingsFromTxn(rtxn *engine.ReadTxn) Settings {
	var s Settings
	if pk := rtxn.PrimaryKey(); pk != "" {
		s.PrimaryKey = &pk
	}
	if fields, all := rtxn.SearchableFields(); all {
		s.SearchableFields = nil
	} else {
		s.SearchableFields = fields
		if s.SearchableFields == nil {
			s.SearchableFields = []string{}
		}
	}
	s.FilterableFields = sortedKeys(rtxn.FilterableFields())
	s.SortableFields = sortedKeys(rtxn.SortableFields())
	s.RankingRules = []string{}
	for _, c := range rtxn.Criteria() {
		s.RankingRules = append(s.RankingRules, c.String())
	}
	s.StopWords = sortedKeys(rtxn.StopWords())
	s.Synonyms = rtxn.Synonyms()
	s.TyposEnabled = rtxn.AuthorizeTypos()
	s.MinWordSizeForOneTypo = rtxn.MinWordLenOneTypo()
	s.MinWordSizeForTwoTypos = rtxn.MinWordLenTwoTypos()
	s.DisallowTyposOnWords = sortedKeys(rtxn.ExactWords())
	s.DisallowTyposOnFields = sortedKeys(rtxn.ExactAttributes())
	return s
}

// SetSettings applies s atomically. Unknown ranking-rule names fail the
// whole update before anything is committed.
func (ix *Index) SetSettings(ctx context.Context, s Settings) error {
	start := time.Now()
	err := ix.setSettings(s)
	ix.opts.metricsCollector.RecordSettingsUpdate(time.Since(start), err)
	ix.opts.logger.LogSettings(ctx, err)
	return err
}

func (ix *Index) setSettings(s Settings) error {
	// Validate the ranking-rule vocabulary before touching the index.
	criteria := make([]engine.Criterion, 0, len(s.RankingRules))
	for _, name := range s.RankingRules {
		c, err := engine.CriterionFromString(name)
		if err != nil {
			return fmt.Errorf("lexgo: %w", translateError(err))
		}
		criteria = append(criteria, c)
	}

	wtxn, err := ix.env.WriteTxn()
	if err != nil {
		return fmt.Errorf("lexgo: %w", translateError(err))
	}

	builder := engine.NewSettings(wtxn)
	if s.PrimaryKey != nil {
		builder.SetPrimaryKey(*s.PrimaryKey)
	} else {
		builder.ResetPrimaryKey()
	}
	if s.SearchableFields == nil {
		builder.ResetSearchableFields()
	} else {
		builder.SetSearchableFields(s.SearchableFields)
	}
	builder.SetFilterableFields(toSet(s.FilterableFields))
	builder.SetSortableFields(toSet(s.SortableFields))
	builder.SetCriteria(criteria)
	builder.SetStopWords(toSet(s.StopWords))
	builder.SetSynonyms(s.Synonyms)
	builder.SetAuthorizeTypos(s.TyposEnabled)
	builder.SetMinWordLenOneTypo(s.MinWordSizeForOneTypo)
	builder.SetMinWordLenTwoTypos(s.MinWordSizeForTwoTypos)
	builder.SetExactWords(toSet(s.DisallowTyposOnWords))
	builder.SetExactAttributes(toSet(s.DisallowTyposOnFields))

	if err := builder.Execute(nil, nil); err != nil {
		wtxn.Abort()
		return fmt.Errorf("lexgo: %w", translateError(err))
	}
	if err := wtxn.Commit(); err != nil {
		return fmt.Errorf("lexgo: commit: %w", translateError(err))
	}
	return nil
}

func sortedKeys(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toSet(s []string) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for _, k := range s {
		out[k] = struct{}{}
	}
	return out
}
