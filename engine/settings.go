package engine

// Engine-level settings defaults, matching the documented behavior of the
// index: every facet has a reset value, and resetting is distinct from
// leaving a facet unchanged.
const (
	defaultMinWordLenOneTypo  uint8 = 5
	defaultMinWordLenTwoTypos uint8 = 9
)

// settingsState is the committed configuration of an environment.
type settingsState struct {
	primaryKey         string   // "" means not yet established
	searchableFields   []string // nil means the "all fields" sentinel
	filterableFields   map[string]struct{}
	sortableFields     map[string]struct{}
	criteria           []Criterion
	stopWords          map[string]struct{}
	synonyms           map[string][]string
	authorizeTypos     bool
	minWordLenOneTypo  uint8
	minWordLenTwoTypos uint8
	exactWords         map[string]struct{}
	exactAttributes    map[string]struct{}
}

func defaultSettings() settingsState {
	return settingsState{
		filterableFields:   make(map[string]struct{}),
		sortableFields:     make(map[string]struct{}),
		criteria:           DefaultCriteria(),
		stopWords:          make(map[string]struct{}),
		synonyms:           make(map[string][]string),
		authorizeTypos:     true,
		minWordLenOneTypo:  defaultMinWordLenOneTypo,
		minWordLenTwoTypos: defaultMinWordLenTwoTypos,
		exactWords:         make(map[string]struct{}),
		exactAttributes:    make(map[string]struct{}),
	}
}

func (s settingsState) clone() settingsState {
	c := s
	// Preserve nil-vs-empty: an empty searchable list is "no fields", not
	// the "all fields" sentinel.
	if s.searchableFields != nil {
		c.searchableFields = append(make([]string, 0, len(s.searchableFields)), s.searchableFields...)
	}
	c.filterableFields = cloneSet(s.filterableFields)
	c.sortableFields = cloneSet(s.sortableFields)
	c.criteria = append([]Criterion(nil), s.criteria...)
	c.stopWords = cloneSet(s.stopWords)
	c.synonyms = make(map[string][]string, len(s.synonyms))
	for k, v := range s.synonyms {
		c.synonyms[k] = append([]string(nil), v...)
	}
	c.exactWords = cloneSet(s.exactWords)
	c.exactAttributes = cloneSet(s.exactAttributes)
	return c
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	c := make(map[string]struct{}, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

// SettingsBuilder stages per-facet set/reset calls against one write
// transaction. Facets not touched keep their current value; an explicit
// reset restores the engine default.
type SettingsBuilder struct {
	wtxn *WriteTxn

	primaryKey        *string // nil = unchanged
	resetPrimaryKey   bool
	searchable        []string
	setSearchable     bool
	resetSearchable   bool
	filterable        map[string]struct{}
	setFilterable     bool
	sortable          map[string]struct{}
	setSortable       bool
	criteria          []Criterion
	setCriteria       bool
	stopWords         map[string]struct{}
	setStopWords      bool
	synonyms          map[string][]string
	setSynonyms       bool
	authorizeTypos    *bool
	minWordLenOne     *uint8
	minWordLenTwo     *uint8
	exactWords        map[string]struct{}
	setExactWords     bool
	exactAttrs        map[string]struct{}
	setExactAttrs     bool
}

// NewSettings creates a settings update builder bound to wtxn.
func NewSettings(wtxn *WriteTxn) *SettingsBuilder {
	return &SettingsBuilder{wtxn: wtxn}
}

// SetPrimaryKey sets the primary-key designation.
func (b *SettingsBuilder) SetPrimaryKey(pk string) {
	b.primaryKey = &pk
	b.resetPrimaryKey = false
}

// ResetPrimaryKey clears the primary-key designation so the engine infers
// one from the next ingested batch.
func (b *SettingsBuilder) ResetPrimaryKey() {
	b.primaryKey = nil
	b.resetPrimaryKey = true
}

// SetSearchableFields sets the ordered searchable-field list. An empty
// list is stored as an empty non-nil slice so it stays distinct from the
// "all fields" sentinel.
func (b *SettingsBuilder) SetSearchableFields(fields []string) {
	b.searchable = append(make([]string, 0, len(fields)), fields...)
	b.setSearchable = true
	b.resetSearchable = false
}

// ResetSearchableFields restores the "all fields" sentinel.
func (b *SettingsBuilder) ResetSearchableFields() {
	b.searchable = nil
	b.setSearchable = false
	b.resetSearchable = true
}

// SetFilterableFields sets the filterable-field set.
func (b *SettingsBuilder) SetFilterableFields(fields map[string]struct{}) {
	b.filterable = cloneSet(fields)
	b.setFilterable = true
}

// SetSortableFields sets the sortable-field set.
func (b *SettingsBuilder) SetSortableFields(fields map[string]struct{}) {
	b.sortable = cloneSet(fields)
	b.setSortable = true
}

// SetCriteria sets the ranking-rule order.
func (b *SettingsBuilder) SetCriteria(criteria []Criterion) {
	b.criteria = append([]Criterion(nil), criteria...)
	b.setCriteria = true
}

// SetStopWords sets the stop-word set.
func (b *SettingsBuilder) SetStopWords(words map[string]struct{}) {
	b.stopWords = cloneSet(words)
	b.setStopWords = true
}

// SetSynonyms sets the synonym mapping.
func (b *SettingsBuilder) SetSynonyms(synonyms map[string][]string) {
	m := make(map[string][]string, len(synonyms))
	for k, v := range synonyms {
		m[k] = append([]string(nil), v...)
	}
	b.synonyms = m
	b.setSynonyms = true
}

// SetAuthorizeTypos toggles typo tolerance.
func (b *SettingsBuilder) SetAuthorizeTypos(enabled bool) {
	b.authorizeTypos = &enabled
}

// SetMinWordLenOneTypo sets the minimum word length triggering one typo.
func (b *SettingsBuilder) SetMinWordLenOneTypo(n uint8) {
	v := n
	b.minWordLenOne = &v
}

// SetMinWordLenTwoTypos sets the minimum word length triggering two typos.
func (b *SettingsBuilder) SetMinWordLenTwoTypos(n uint8) {
	v := n
	b.minWordLenTwo = &v
}

// SetExactWords sets the words exempt from typo tolerance.
func (b *SettingsBuilder) SetExactWords(words map[string]struct{}) {
	b.exactWords = cloneSet(words)
	b.setExactWords = true
}

// SetExactAttributes sets the fields exempt from typo tolerance.
func (b *SettingsBuilder) SetExactAttributes(fields map[string]struct{}) {
	b.exactAttrs = cloneSet(fields)
	b.setExactAttrs = true
}

// Execute applies the staged facets to the transaction's state. The
// progress callback and stop check are threaded through for parity with
// the indexing hooks; settings application is not interruptible today.
func (b *SettingsBuilder) Execute(progress func(Progress), shouldStop func() bool) error {
	if err := b.wtxn.usable(); err != nil {
		return err
	}
	_ = shouldStop

	st := &b.wtxn.state.settings

	if b.resetPrimaryKey {
		st.primaryKey = ""
	} else if b.primaryKey != nil {
		st.primaryKey = *b.primaryKey
	}

	if b.resetSearchable {
		st.searchableFields = nil
	} else if b.setSearchable {
		st.searchableFields = b.searchable
	}

	if b.setFilterable {
		st.filterableFields = b.filterable
	}
	if b.setSortable {
		st.sortableFields = b.sortable
	}
	if b.setCriteria {
		st.criteria = b.criteria
	}
	if b.setStopWords {
		st.stopWords = b.stopWords
	}
	if b.setSynonyms {
		st.synonyms = b.synonyms
	}
	if b.authorizeTypos != nil {
		st.authorizeTypos = *b.authorizeTypos
	}
	if b.minWordLenOne != nil {
		st.minWordLenOneTypo = *b.minWordLenOne
	}
	if b.minWordLenTwo != nil {
		st.minWordLenTwoTypos = *b.minWordLenTwo
	}
	if b.setExactWords {
		st.exactWords = b.exactWords
	}
	if b.setExactAttrs {
		st.exactAttributes = b.exactAttrs
	}

	if progress != nil {
		progress(Progress{Step: "settings", Done: 1, Total: 1})
	}
	return nil
}
