package engine

import (
	"strings"

	"github.com/hupe1980/lexgo/document"
)

// Progress reports indexing progress to the caller-supplied callback.
type Progress struct {
	Step  string
	Done  uint64
	Total uint64
}

// Batch is the engine's internal document-batch encoding: records staged
// one at a time by a BatchBuilder, value-copied at append time.
type Batch struct {
	docs []document.Document
}

// Len returns the number of staged records.
func (b *Batch) Len() int { return len(b.docs) }

// BatchBuilder serializes loosely-typed records into a Batch.
type BatchBuilder struct {
	batch Batch
}

// NewBatchBuilder creates an empty batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{}
}

// AppendObject appends one structured record to the batch.
func (b *BatchBuilder) AppendObject(doc document.Document) error {
	if doc == nil {
		return userErrorf("cannot index a null record")
	}
	b.batch.docs = append(b.batch.docs, doc.Clone())
	return nil
}

// Finish returns the assembled batch.
func (b *BatchBuilder) Finish() *Batch {
	return &b.batch
}

// DocumentAdditionResult is the inner, user-data stage of a document
// addition: Error is non-nil when the engine rejected the batch content
// (missing or invalid primary keys), even though the batch step itself
// completed. Callers must check it independently of the outer error.
type DocumentAdditionResult struct {
	IndexedCount uint64
	Error        *UserError
}

// IndexDocuments indexes document batches inside one write transaction.
// The progress callback and stop check are invoked during Execute.
type IndexDocuments struct {
	wtxn       *WriteTxn
	progress   func(Progress)
	shouldStop func() bool

	staged []stagedRecord
}

type stagedRecord struct {
	externalID string
	doc        document.Document
}

// NewIndexDocuments creates a document-indexing step bound to wtxn.
func NewIndexDocuments(wtxn *WriteTxn, progress func(Progress), shouldStop func() bool) (*IndexDocuments, error) {
	if err := wtxn.usable(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(Progress) {}
	}
	if shouldStop == nil {
		shouldStop = func() bool { return false }
	}
	return &IndexDocuments{wtxn: wtxn, progress: progress, shouldStop: shouldStop}, nil
}

// AddDocuments validates and stages a batch. The returned result carries
// the user-data outcome; the error covers batch mechanics. Both must be
// checked before Execute.
func (ix *IndexDocuments) AddDocuments(batch *Batch) (DocumentAdditionResult, error) {
	if err := ix.wtxn.usable(); err != nil {
		return DocumentAdditionResult{}, err
	}

	st := ix.wtxn.state

	pk := st.settings.primaryKey
	if pk == "" && len(batch.docs) > 0 {
		inferred, uerr := inferPrimaryKey(batch.docs[0])
		if uerr != nil {
			return DocumentAdditionResult{Error: uerr}, nil
		}
		pk = inferred
		st.settings.primaryKey = pk
	}

	staged := make([]stagedRecord, 0, len(batch.docs))
	for _, doc := range batch.docs {
		v, ok := doc[pk]
		if !ok {
			return DocumentAdditionResult{
				Error: userErrorf("document is missing the primary key field %q", pk),
			}, nil
		}
		externalID, ok := v.ExternalID()
		if !ok {
			return DocumentAdditionResult{
				Error: userErrorf("primary key field %q holds a value that is not a string or a number", pk),
			}, nil
		}
		staged = append(staged, stagedRecord{externalID: externalID, doc: doc})
	}

	ix.staged = append(ix.staged, staged...)
	return DocumentAdditionResult{IndexedCount: uint64(len(staged))}, nil
}

// Execute writes the staged records into the transaction state. Records
// sharing an external identifier with an existing document replace it.
func (ix *IndexDocuments) Execute() error {
	if err := ix.wtxn.usable(); err != nil {
		return err
	}

	st := ix.wtxn.state
	total := uint64(len(ix.staged))
	for i, rec := range ix.staged {
		if ix.shouldStop() {
			return userErrorf("indexing interrupted after %d of %d documents", i, total)
		}

		data, err := st.encodeRecord(ix.wtxn.env.codec, rec.doc)
		if err != nil {
			return err
		}

		id, ok := st.external[rec.externalID]
		if !ok {
			id = st.nextID
			st.nextID++
			st.external[rec.externalID] = id
		}
		st.docs[id] = data
		st.live.Add(uint32(id))

		ix.progress(Progress{Step: "indexing documents", Done: uint64(i) + 1, Total: total})
	}
	ix.staged = nil
	return nil
}

// inferPrimaryKey picks the primary-key field from the first record of the
// first ingested batch: the single field whose name ends in "id"
// (case-insensitive).
func inferPrimaryKey(doc document.Document) (string, *UserError) {
	var candidates []string
	for name := range doc {
		if strings.HasSuffix(strings.ToLower(name), "id") {
			candidates = append(candidates, name)
		}
	}
	switch len(candidates) {
	case 0:
		return "", userErrorf("no primary key candidate found in the first document")
	case 1:
		return candidates[0], nil
	default:
		return "", userErrorf("multiple primary key candidates found in the first document")
	}
}

// DeleteDocuments deletes documents by external identifier inside one
// write transaction. Unknown identifiers are silently ignored.
type DeleteDocuments struct {
	wtxn *WriteTxn
	ids  []string
}

// NewDeleteDocuments creates a deletion step bound to wtxn.
func NewDeleteDocuments(wtxn *WriteTxn) (*DeleteDocuments, error) {
	if err := wtxn.usable(); err != nil {
		return nil, err
	}
	return &DeleteDocuments{wtxn: wtxn}, nil
}

// DeleteExternalID stages the deletion of one external identifier.
func (d *DeleteDocuments) DeleteExternalID(externalID string) {
	d.ids = append(d.ids, externalID)
}

// Execute applies the staged deletions and reports how many documents
// were actually removed.
func (d *DeleteDocuments) Execute() (uint64, error) {
	if err := d.wtxn.usable(); err != nil {
		return 0, err
	}

	st := d.wtxn.state
	var deleted uint64
	for _, externalID := range d.ids {
		id, ok := st.external[externalID]
		if !ok {
			continue
		}
		delete(st.external, externalID)
		delete(st.docs, id)
		st.live.Remove(uint32(id))
		deleted++
	}
	return deleted, nil
}

// ClearDocuments removes every document while preserving settings and the
// field-name dictionary.
type ClearDocuments struct {
	wtxn *WriteTxn
}

// NewClearDocuments creates a clear step bound to wtxn.
func NewClearDocuments(wtxn *WriteTxn) *ClearDocuments {
	return &ClearDocuments{wtxn: wtxn}
}

// Execute clears the document set and reports the removed count.
func (c *ClearDocuments) Execute() (uint64, error) {
	if err := c.wtxn.usable(); err != nil {
		return 0, err
	}

	st := c.wtxn.state
	removed := st.live.GetCardinality()
	st.docs = make(map[DocID][]byte)
	st.external = make(map[string]DocID)
	st.live.Clear()
	return removed, nil
}
