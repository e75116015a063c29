package scoring

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// stopWords are common English terms skipped when building query terms.
// Matching on these would inflate overlap for unrelated candidates.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {},
	"on": {}, "or": {}, "that": {}, "the": {}, "to": {}, "was": {},
	"were": {}, "which": {}, "will": {}, "with": {}, "this": {},
	"these": {}, "those": {}, "their": {}, "them": {}, "they": {},
}

// tokenize lowercases text and splits it on anything that is not a
// letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// significantTerms returns the distinct non-stopword tokens of text
// longer than two runes, in first-occurrence order.
func significantTerms(text string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, tok := range tokenize(text) {
		if len([]rune(tok)) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return terms
}

// Lexical scores a candidate by the fraction of the query's significant
// terms that appear as whole tokens in the candidate text.
type Lexical struct{}

func (Lexical) Score(text string, q Query) float64 {
	terms := significantTerms(q.Text())
	if len(terms) == 0 {
		return 0
	}
	have := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		have[tok] = struct{}{}
	}
	matched := 0
	for _, term := range terms {
		if _, ok := have[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// sanitizeFTSQuery turns free text into a safe FTS5 OR-query. FTS5
// treats quotes, parens and operators specially, so only bare terms
// survive.
func sanitizeFTSQuery(text string) string {
	terms := significantTerms(text)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

// EmbedText maps text onto a fixed-dimension vector by hashing each
// token into a bucket and counting, then L2-normalizing. Identical
// texts always embed identically, so vector rankings are reproducible
// across runs.
func EmbedText(text string, dim int) []float32 {
	vec := make([]float32, dim)
	toks := tokenize(text)
	if len(toks) == 0 {
		return vec
	}
	for _, tok := range toks {
		h := fnv.New64a()
		h.Write([]byte(tok))
		vec[h.Sum64()%uint64(dim)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
