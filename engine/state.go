package engine

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/document"
)

// DocID is the engine-internal document identifier. It is positional and
// never exposed as a caller-visible key; the external-identifier map
// translates between the two.
type DocID uint32

// FieldID indexes the environment's field-name dictionary.
type FieldID uint16

// snapshot is one committed version of the environment state. Snapshots
// are immutable once published; write transactions mutate a private clone
// and publish it on commit.
type snapshot struct {
	fields   []string // FieldID -> field name
	fieldIDs map[string]FieldID
	docs     map[DocID][]byte // encoded records, keyed by internal id
	external map[string]DocID // external id -> internal id
	live     *roaring.Bitmap
	nextID   DocID
	settings settingsState
}

func newSnapshot() *snapshot {
	return &snapshot{
		fieldIDs: make(map[string]FieldID),
		docs:     make(map[DocID][]byte),
		external: make(map[string]DocID),
		live:     roaring.New(),
		settings: defaultSettings(),
	}
}

// clone produces a mutable copy. Record payloads are immutable, so the
// docs map is copied shallowly.
func (s *snapshot) clone() *snapshot {
	c := &snapshot{
		fields:   append([]string(nil), s.fields...),
		fieldIDs: make(map[string]FieldID, len(s.fieldIDs)),
		docs:     make(map[DocID][]byte, len(s.docs)),
		external: make(map[string]DocID, len(s.external)),
		live:     s.live.Clone(),
		nextID:   s.nextID,
		settings: s.settings.clone(),
	}
	for k, v := range s.fieldIDs {
		c.fieldIDs[k] = v
	}
	for k, v := range s.docs {
		c.docs[k] = v
	}
	for k, v := range s.external {
		c.external[k] = v
	}
	return c
}

// fieldID returns the dictionary id for name, adding it when absent.
func (s *snapshot) fieldID(name string) FieldID {
	if id, ok := s.fieldIDs[name]; ok {
		return id
	}
	id := FieldID(len(s.fields))
	s.fields = append(s.fields, name)
	s.fieldIDs[name] = id
	return id
}

// encodeRecord converts a document into its stored form: a codec-encoded
// mapping from field id to value. New field names are added to the
// dictionary as a side effect.
func (s *snapshot) encodeRecord(c codec.Codec, doc document.Document) ([]byte, error) {
	rec := make(map[FieldID]document.Value, len(doc))
	for name, v := range doc {
		rec[s.fieldID(name)] = v
	}
	return c.Marshal(rec)
}

// decodeRecord reconstructs a document from its stored form using the
// field-name dictionary.
func (s *snapshot) decodeRecord(c codec.Codec, data []byte) (document.Document, error) {
	var rec map[FieldID]document.Value
	if err := c.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("engine: decode record: %w", err)
	}
	doc := make(document.Document, len(rec))
	for id, v := range rec {
		if int(id) >= len(s.fields) {
			return nil, fmt.Errorf("engine: record references unknown field id %d", id)
		}
		doc[s.fields[id]] = v
	}
	return doc, nil
}
