package engine

import (
	"sort"

	"github.com/hupe1980/lexgo/document"
)

// ReadTxn is a read transaction: a consistent snapshot of the environment
// unaffected by concurrent writers. Multiple read transactions may proceed
// in parallel. Close must be called when done.
type ReadTxn struct {
	env   *Environment
	state *snapshot
	done  bool
}

// Close finishes the transaction. It is safe to call once.
func (t *ReadTxn) Close() {
	if t.done {
		return
	}
	t.done = true
	t.env.txns.Done()
}

// NumberOfDocuments returns the committed document count.
func (t *ReadTxn) NumberOfDocuments() uint64 {
	return t.state.live.GetCardinality()
}

// PrimaryKey returns the established primary-key field, or "" when none
// has been set or inferred yet.
func (t *ReadTxn) PrimaryKey() string {
	return t.state.settings.primaryKey
}

// SearchableFields returns the ordered searchable-field list. A nil slice
// with all=true is the "all fields" sentinel.
func (t *ReadTxn) SearchableFields() (fields []string, all bool) {
	if t.state.settings.searchableFields == nil {
		return nil, true
	}
	return append([]string(nil), t.state.settings.searchableFields...), false
}

// FilterableFields returns the filterable-field set.
func (t *ReadTxn) FilterableFields() map[string]struct{} {
	return cloneSet(t.state.settings.filterableFields)
}

// SortableFields returns the sortable-field set.
func (t *ReadTxn) SortableFields() map[string]struct{} {
	return cloneSet(t.state.settings.sortableFields)
}

// Criteria returns the ranking-rule order.
func (t *ReadTxn) Criteria() []Criterion {
	return append([]Criterion(nil), t.state.settings.criteria...)
}

// StopWords returns the stop-word set.
func (t *ReadTxn) StopWords() map[string]struct{} {
	return cloneSet(t.state.settings.stopWords)
}

// Synonyms returns the synonym mapping.
func (t *ReadTxn) Synonyms() map[string][]string {
	m := make(map[string][]string, len(t.state.settings.synonyms))
	for k, v := range t.state.settings.synonyms {
		m[k] = append([]string(nil), v...)
	}
	return m
}

// AuthorizeTypos reports whether typo tolerance is enabled.
func (t *ReadTxn) AuthorizeTypos() bool {
	return t.state.settings.authorizeTypos
}

// MinWordLenOneTypo returns the minimum word length triggering one typo.
func (t *ReadTxn) MinWordLenOneTypo() uint8 {
	return t.state.settings.minWordLenOneTypo
}

// MinWordLenTwoTypos returns the minimum word length triggering two typos.
func (t *ReadTxn) MinWordLenTwoTypos() uint8 {
	return t.state.settings.minWordLenTwoTypos
}

// ExactWords returns the words exempt from typo tolerance.
func (t *ReadTxn) ExactWords() map[string]struct{} {
	return cloneSet(t.state.settings.exactWords)
}

// ExactAttributes returns the fields exempt from typo tolerance.
func (t *ReadTxn) ExactAttributes() map[string]struct{} {
	return cloneSet(t.state.settings.exactAttributes)
}

// LookupExternalID resolves an external (caller-visible) identifier to the
// internal identifier.
func (t *ReadTxn) LookupExternalID(externalID string) (DocID, bool) {
	id, ok := t.state.external[externalID]
	return id, ok
}

// Document fetches the record stored under the internal identifier and
// reconstructs it with the field-name dictionary. A missing record is
// ErrMissingRecord: the identifier map is the only path to internal ids,
// so absence here is an internal-invariant violation, not a lookup miss.
func (t *ReadTxn) Document(id DocID) (document.Document, error) {
	data, ok := t.state.docs[id]
	if !ok || !t.state.live.Contains(uint32(id)) {
		return nil, ErrMissingRecord
	}
	return t.state.decodeRecord(t.env.codec, data)
}

// Documents fetches several records, preserving the id order.
func (t *ReadTxn) Documents(ids []DocID) ([]document.Document, error) {
	docs := make([]document.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := t.Document(id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// AllDocumentIDs returns every live internal identifier in the engine's
// storage order.
func (t *ReadTxn) AllDocumentIDs() []DocID {
	ids := make([]DocID, 0, t.state.live.GetCardinality())
	it := t.state.live.Iterator()
	for it.HasNext() {
		ids = append(ids, DocID(it.Next()))
	}
	return ids
}

// WriteTxn is a write transaction over a private clone of the committed
// state. Nothing is visible to readers until Commit; Abort discards every
// staged change.
type WriteTxn struct {
	env   *Environment
	state *snapshot
	done  bool
}

func (t *WriteTxn) usable() error {
	if t.done {
		return ErrTxnFinished
	}
	return nil
}

// Commit persists the staged state and publishes it atomically. On error
// the transaction is finished and nothing is published.
func (t *WriteTxn) Commit() error {
	if err := t.usable(); err != nil {
		return err
	}
	t.done = true
	defer func() {
		t.env.writer.Unlock()
		t.env.txns.Done()
	}()

	if err := persistSnapshot(t.env.dir, t.env.mapSize, t.env.codec, t.state); err != nil {
		return err
	}
	t.env.current.Store(t.state)
	return nil
}

// Abort discards the transaction.
func (t *WriteTxn) Abort() {
	if t.done {
		return
	}
	t.done = true
	t.env.writer.Unlock()
	t.env.txns.Done()
}

// sortedDocIDs returns map keys in ascending order; used by persistence
// for deterministic output.
func sortedDocIDs(m map[DocID][]byte) []DocID {
	ids := make([]DocID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
