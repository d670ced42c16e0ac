package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/internal/mmap"
)

// snapshotFile is the single data file inside an environment directory.
const snapshotFile = "data.lexgo"

var snapshotMagic = [4]byte{'l', 'x', 'g', 'o'}

const snapshotVersion = 1

// persistedState is the stable on-disk form of a snapshot. Only live
// records are stored, so the live set is implied by the record keys.
type persistedState struct {
	Fields   []string
	NextID   uint32
	Docs     map[uint32][]byte
	External map[string]uint32
	Settings persistedSettings
}

type persistedSettings struct {
	PrimaryKey         string
	SearchableFields   []string
	SearchableSet      bool // distinguishes an explicit list from the "all fields" sentinel
	FilterableFields   []string
	SortableFields     []string
	Criteria           []string
	StopWords          []string
	Synonyms           map[string][]string
	AuthorizeTypos     bool
	MinWordLenOneTypo  uint8
	MinWordLenTwoTypos uint8
	ExactWords         []string
	ExactAttributes    []string
}

// persistSnapshot writes the snapshot to the environment directory,
// zstd-compressed and bounded by the negotiated map size. The write is
// atomic: a temp file is renamed over the previous snapshot.
func persistSnapshot(dir string, mapSize int, c codec.Codec, s *snapshot) error {
	payload, err := c.Marshal(toPersisted(s))
	if err != nil {
		return fmt.Errorf("engine: encode snapshot: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(snapshotMagic[:])
	buf.WriteByte(snapshotVersion)
	name := c.Name()
	if len(name) > 255 {
		return fmt.Errorf("engine: codec name too long: %q", name)
	}
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)

	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(len(payload)))
	buf.Write(sizeBuf[:])

	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("engine: create compressor: %w", err)
	}
	if _, err := enc.Write(payload); err != nil {
		_ = enc.Close()
		return fmt.Errorf("engine: compress snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("engine: compress snapshot: %w", err)
	}

	if buf.Len() > mapSize {
		return fmt.Errorf("%w: snapshot needs %d bytes, map size is %d", ErrMapFull, buf.Len(), mapSize)
	}

	tmp := filepath.Join(dir, snapshotFile+".tmp")
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("engine: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, snapshotFile)); err != nil {
		return fmt.Errorf("engine: publish snapshot: %w", err)
	}
	return nil
}

// loadSnapshot reads the committed snapshot from dir, or returns a fresh
// empty snapshot when none exists yet.
func loadSnapshot(dir string, c codec.Codec) (*snapshot, error) {
	path := filepath.Join(dir, snapshotFile)
	m, err := mmap.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newSnapshot(), nil
		}
		return nil, fmt.Errorf("engine: open snapshot: %w", err)
	}
	defer m.Close()
	_ = m.Advise(mmap.AccessSequential)

	data := m.Bytes()
	if len(data) == 0 {
		return newSnapshot(), nil
	}
	if len(data) < 6 || !bytes.Equal(data[:4], snapshotMagic[:]) {
		return nil, fmt.Errorf("engine: %s is not a lexgo snapshot", path)
	}
	if data[4] != snapshotVersion {
		return nil, fmt.Errorf("engine: unsupported snapshot version %d", data[4])
	}
	nameLen := int(data[5])
	if len(data) < 6+nameLen+8 {
		return nil, fmt.Errorf("engine: truncated snapshot header in %s", path)
	}
	codecName := string(data[6 : 6+nameLen])
	fileCodec, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("engine: snapshot uses unknown codec %q", codecName)
	}
	rest := data[6+nameLen:]
	payloadLen := binary.LittleEndian.Uint64(rest[:8])

	dec, err := zstd.NewReader(bytes.NewReader(rest[8:]))
	if err != nil {
		return nil, fmt.Errorf("engine: create decompressor: %w", err)
	}
	defer dec.Close()

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(dec, payload); err != nil {
		return nil, fmt.Errorf("engine: decompress snapshot: %w", err)
	}

	var p persistedState
	if err := fileCodec.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("engine: decode snapshot: %w", err)
	}
	return fromPersisted(&p), nil
}

func toPersisted(s *snapshot) *persistedState {
	p := &persistedState{
		Fields:   append([]string(nil), s.fields...),
		NextID:   uint32(s.nextID),
		Docs:     make(map[uint32][]byte, len(s.docs)),
		External: make(map[string]uint32, len(s.external)),
		Settings: persistedSettings{
			PrimaryKey:         s.settings.primaryKey,
			SearchableFields:   append([]string(nil), s.settings.searchableFields...),
			SearchableSet:      s.settings.searchableFields != nil,
			FilterableFields:   setToSlice(s.settings.filterableFields),
			SortableFields:     setToSlice(s.settings.sortableFields),
			StopWords:          setToSlice(s.settings.stopWords),
			Synonyms:           s.settings.synonyms,
			AuthorizeTypos:     s.settings.authorizeTypos,
			MinWordLenOneTypo:  s.settings.minWordLenOneTypo,
			MinWordLenTwoTypos: s.settings.minWordLenTwoTypos,
			ExactWords:         setToSlice(s.settings.exactWords),
			ExactAttributes:    setToSlice(s.settings.exactAttributes),
		},
	}
	for _, id := range sortedDocIDs(s.docs) {
		p.Docs[uint32(id)] = s.docs[id]
	}
	for k, v := range s.external {
		p.External[k] = uint32(v)
	}
	for _, c := range s.settings.criteria {
		p.Settings.Criteria = append(p.Settings.Criteria, c.String())
	}
	return p
}

func fromPersisted(p *persistedState) *snapshot {
	s := newSnapshot()
	s.fields = append([]string(nil), p.Fields...)
	for i, name := range s.fields {
		s.fieldIDs[name] = FieldID(i)
	}
	s.nextID = DocID(p.NextID)
	for id, rec := range p.Docs {
		s.docs[DocID(id)] = rec
		s.live.Add(id)
	}
	for k, v := range p.External {
		s.external[k] = DocID(v)
	}

	st := &s.settings
	st.primaryKey = p.Settings.PrimaryKey
	if p.Settings.SearchableSet {
		st.searchableFields = append([]string{}, p.Settings.SearchableFields...)
	} else {
		st.searchableFields = nil
	}
	st.filterableFields = sliceToSet(p.Settings.FilterableFields)
	st.sortableFields = sliceToSet(p.Settings.SortableFields)
	st.stopWords = sliceToSet(p.Settings.StopWords)
	if p.Settings.Synonyms != nil {
		st.synonyms = p.Settings.Synonyms
	}
	st.authorizeTypos = p.Settings.AuthorizeTypos
	st.minWordLenOneTypo = p.Settings.MinWordLenOneTypo
	st.minWordLenTwoTypos = p.Settings.MinWordLenTwoTypos
	st.exactWords = sliceToSet(p.Settings.ExactWords)
	st.exactAttributes = sliceToSet(p.Settings.ExactAttributes)
	if len(p.Settings.Criteria) > 0 {
		st.criteria = st.criteria[:0]
		for _, name := range p.Settings.Criteria {
			c, err := CriterionFromString(name)
			if err != nil {
				continue // tolerate forward-compat names on load
			}
			st.criteria = append(st.criteria, c)
		}
	}
	return s
}

func setToSlice(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

func sliceToSet(s []string) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for _, k := range s {
		out[k] = struct{}{}
	}
	return out
}
