package engine

// Criterion is a stage in the engine's result-ordering pipeline.
type Criterion uint8

const (
	// CriterionWords ranks by the number of matched query terms.
	CriterionWords Criterion = iota
	// CriterionTypo ranks by the number of typos tolerated across matches.
	CriterionTypo
	// CriterionProximity ranks by the distance between matched terms.
	CriterionProximity
	// CriterionAttribute ranks by the searchable-field position of matches.
	CriterionAttribute
	// CriterionSort applies the query's sort criteria.
	CriterionSort
	// CriterionExactness ranks by the share of exact (typo- and
	// synonym-free) matches.
	CriterionExactness
)

// String returns the canonical name of the criterion.
func (c Criterion) String() string {
	switch c {
	case CriterionWords:
		return "words"
	case CriterionTypo:
		return "typo"
	case CriterionProximity:
		return "proximity"
	case CriterionAttribute:
		return "attribute"
	case CriterionSort:
		return "sort"
	case CriterionExactness:
		return "exactness"
	default:
		return "unknown"
	}
}

// CriterionFromString parses a canonical ranking-rule name. Names outside
// the fixed vocabulary are a hard error; per-query asc/desc rules are not
// part of the index-level vocabulary.
func CriterionFromString(name string) (Criterion, error) {
	switch name {
	case "words":
		return CriterionWords, nil
	case "typo":
		return CriterionTypo, nil
	case "proximity":
		return CriterionProximity, nil
	case "attribute":
		return CriterionAttribute, nil
	case "sort":
		return CriterionSort, nil
	case "exactness":
		return CriterionExactness, nil
	default:
		return 0, &UnknownCriterionError{Name: name}
	}
}

// DefaultCriteria returns the ranking-rule order of a fresh environment.
func DefaultCriteria() []Criterion {
	return []Criterion{
		CriterionWords,
		CriterionTypo,
		CriterionProximity,
		CriterionAttribute,
		CriterionSort,
		CriterionExactness,
	}
}
