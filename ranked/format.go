package ranked

import (
	"strings"
	"unicode"

	"github.com/hupe1980/lexgo/document"
)

// formatter renders the Formatted side of a hit: matched terms wrapped in
// highlight tags and long texts cropped to a word window around the first
// match.
type formatter struct {
	terms      map[string]struct{}
	preTag     string
	postTag    string
	marker     string
	cropLength int

	// highlight and crop restrict formatting to the named fields; a nil
	// set means every field.
	highlight map[string]struct{}
	crop      map[string]struct{}
}

func newFormatter(req Request) *formatter {
	f := &formatter{
		terms:      make(map[string]struct{}),
		preTag:     req.HighlightPreTag,
		postTag:    req.HighlightPostTag,
		marker:     req.CropMarker,
		cropLength: int(req.CropLength),
		highlight:  fieldSet(req.AttributesToHighlight),
		crop:       fieldSet(req.AttributesToCrop),
	}
	if f.preTag == "" {
		f.preTag = DefaultHighlightPreTag
	}
	if f.postTag == "" {
		f.postTag = DefaultHighlightPostTag
	}
	if f.marker == "" {
		f.marker = DefaultCropMarker
	}
	if f.cropLength <= 0 {
		f.cropLength = DefaultCropLength
	}
	for _, term := range tokenizeQuery(req.Query) {
		f.terms[term] = struct{}{}
	}
	return f
}

// fieldSet turns a field list into a membership set; nil stays nil (the
// "every field" sentinel).
func fieldSet(fields []string) map[string]struct{} {
	if fields == nil {
		return nil
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func member(set map[string]struct{}, name string) bool {
	if set == nil {
		return true
	}
	_, ok := set[name]
	return ok
}

// format produces the formatted rendition of a document. String values are
// highlighted and cropped per the field selections; arrays are formatted
// element-wise; everything else passes through unchanged.
func (f *formatter) format(doc document.Document) document.Document {
	out := make(document.Document, len(doc))
	for name, v := range doc {
		out[name] = f.formatValue(v, member(f.highlight, name), member(f.crop, name))
	}
	return out
}

func (f *formatter) formatValue(v document.Value, highlight, crop bool) document.Value {
	switch v.Kind {
	case document.KindString:
		return document.String(f.formatString(v.StringValue(), highlight, crop))
	case document.KindArray:
		a, _ := v.AsArray()
		formatted := make([]document.Value, len(a))
		for i, el := range a {
			formatted[i] = f.formatValue(el, highlight, crop)
		}
		return document.Array(formatted...)
	default:
		return v
	}
}

// segment is one run of a string: either a word (letters/digits) or the
// separator text between words.
type segment struct {
	text string
	word bool
}

func splitSegments(s string) []segment {
	var segs []segment
	var cur strings.Builder
	curWord := false
	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, segment{text: cur.String(), word: curWord})
			cur.Reset()
		}
	}
	for _, r := range s {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		if cur.Len() > 0 && isWord != curWord {
			flush()
		}
		curWord = isWord
		cur.WriteRune(r)
	}
	flush()
	return segs
}

func (f *formatter) matches(word string) bool {
	_, ok := f.terms[strings.ToLower(word)]
	return ok
}

func (f *formatter) formatString(s string, highlight, crop bool) string {
	if len(f.terms) == 0 || (!highlight && !crop) {
		return s
	}
	segs := splitSegments(s)

	wordCount := 0
	firstMatch := -1
	for _, seg := range segs {
		if !seg.word {
			continue
		}
		if firstMatch < 0 && f.matches(seg.text) {
			firstMatch = wordCount
		}
		wordCount++
	}

	// Crop window in word indices. Without a match the window anchors at
	// the start of the text.
	cropStart, cropEnd := 0, wordCount
	cropped := crop && wordCount > f.cropLength
	if cropped {
		anchor := 0
		if firstMatch >= 0 {
			anchor = firstMatch - f.cropLength/2
		}
		if anchor < 0 {
			anchor = 0
		}
		if anchor+f.cropLength > wordCount {
			anchor = wordCount - f.cropLength
		}
		cropStart, cropEnd = anchor, anchor+f.cropLength
	}

	var out strings.Builder
	if cropStart > 0 {
		out.WriteString(f.marker)
	}
	wordIdx := 0
	for _, seg := range segs {
		if !seg.word {
			between := wordIdx > cropStart && wordIdx < cropEnd
			leading := wordIdx == 0 && cropStart == 0
			trailing := wordIdx == wordCount && cropEnd == wordCount
			if between || leading || trailing {
				out.WriteString(seg.text)
			}
			continue
		}
		if wordIdx >= cropStart && wordIdx < cropEnd {
			if highlight && f.matches(seg.text) {
				out.WriteString(f.preTag)
				out.WriteString(seg.text)
				out.WriteString(f.postTag)
			} else {
				out.WriteString(seg.text)
			}
		}
		wordIdx++
	}
	if cropEnd < wordCount {
		out.WriteString(f.marker)
	}
	return out.String()
}

// positions reports the byte span of every matched term in the document's
// string fields, against the stored (unformatted) text.
func (f *formatter) positions(doc document.Document) []MatchPosition {
	if len(f.terms) == 0 {
		return nil
	}
	var out []MatchPosition
	for name, v := range doc {
		s, ok := v.AsString()
		if !ok {
			continue
		}
		offset := 0
		for _, seg := range splitSegments(s) {
			if seg.word && f.matches(seg.text) {
				out = append(out, MatchPosition{Field: name, Start: offset, Len: len(seg.text)})
			}
			offset += len(seg.text)
		}
	}
	return out
}

// tokenizeQuery lowercases the query and splits it into word tokens on any
// non-letter, non-digit rune.
func tokenizeQuery(q string) []string {
	return strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
