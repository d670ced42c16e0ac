package engine

import (
	"strings"
	"unicode"

	"github.com/hupe1980/lexgo/document"
)

// tokenize lowercases text and splits it into word tokens on any
// non-letter, non-digit rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// fieldText extracts the searchable text of a field value: strings and
// string elements of arrays. Numbers render to their decimal form so that
// queries can match them; nested objects are not searched.
func fieldText(v document.Value) []string {
	switch v.Kind {
	case document.KindString:
		return []string{v.StringValue()}
	case document.KindArray:
		a, _ := v.AsArray()
		var out []string
		for _, el := range a {
			out = append(out, fieldText(el)...)
		}
		return out
	case document.KindInt, document.KindFloat:
		if s, ok := v.ExternalID(); ok {
			return []string{s}
		}
	}
	return nil
}

// levenshtein returns the edit distance between two words, capped at max.
// The cap keeps the inner loop cheap for long tokens.
func levenshtein(a, b string, max int) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la-lb > max || lb-la > max {
		return max + 1
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > max {
			return max + 1
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// allowedTypos returns the number of typos tolerated for a query term
// under the transaction's typo-tolerance settings.
func (t *ReadTxn) allowedTypos(term string, fieldExempt bool) int {
	st := t.state.settings
	if !st.authorizeTypos || fieldExempt {
		return 0
	}
	if _, exact := st.exactWords[term]; exact {
		return 0
	}
	n := len([]rune(term))
	switch {
	case n < int(st.minWordLenOneTypo):
		return 0
	case n < int(st.minWordLenTwoTypos):
		return 1
	default:
		return 2
	}
}
